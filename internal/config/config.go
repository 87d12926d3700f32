package config

import (
	"errors"
	"io/fs"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Daily    ReportConfig   `yaml:"daily" mapstructure:"daily"`
	Weekly   ReportConfig   `yaml:"weekly" mapstructure:"weekly"`
	Ledger   LedgerConfig   `yaml:"ledger" mapstructure:"ledger"`
	Report   OutputConfig   `yaml:"report" mapstructure:"report"`
	NER      NERConfig      `yaml:"ner" mapstructure:"ner"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates shared inputs.
type PathsConfig struct {
	InputDir      string `yaml:"input_dir" mapstructure:"input_dir"`
	ReferenceMap  string `yaml:"reference_map" mapstructure:"reference_map"`
	OverridesFile string `yaml:"overrides_file" mapstructure:"overrides_file"`
}

// ReportConfig configures one report kind.
type ReportConfig struct {
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	LedgerPath   string `yaml:"ledger_path" mapstructure:"ledger_path"`
	PercentBasis string `yaml:"percent_basis" mapstructure:"percent_basis"`
	Stories      string `yaml:"stories" mapstructure:"stories"`
	MergeEntries bool   `yaml:"merge_entries" mapstructure:"merge_entries"`
	Language     string `yaml:"language" mapstructure:"language"`
	Entities     bool   `yaml:"entities" mapstructure:"entities"`
	NERText      string `yaml:"ner_text" mapstructure:"ner_text"`
	UnmatchedLog string `yaml:"unmatched_log" mapstructure:"unmatched_log"`
	WeekKey      string `yaml:"week_key" mapstructure:"week_key"`
	WeekCap      int    `yaml:"week_cap" mapstructure:"week_cap"`
}

// LedgerConfig selects the processed-file ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig controls how reports from earlier runs are treated.
type OutputConfig struct {
	Mode     string `yaml:"mode" mapstructure:"mode"`
	StateDir string `yaml:"state_dir" mapstructure:"state_dir"`
}

// NERConfig configures the entity extraction collaborator.
type NERConfig struct {
	APIKey           string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL          string   `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec       float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Concurrency      int      `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts      int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	Types            []string `yaml:"types" mapstructure:"types"`
	ExcludeTypes     []string `yaml:"exclude_types" mapstructure:"exclude_types"`
	FailureThreshold int      `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int      `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ResolverConfig tunes country resolution.
type ResolverConfig struct {
	MinSubstringLen int `yaml:"min_substring_len" mapstructure:"min_substring_len"`
}

// MetricsConfig configures the run counter export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ReportFor returns the configuration of a report kind.
func (c *Config) ReportFor(kind string) ReportConfig {
	if kind == "weekly" {
		return c.Weekly
	}
	return c.Daily
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: load env file %s", path)
	}
	return nil
}

// Load reads configuration from config.yaml, environment variables, and
// defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COVERAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can bind it on Unmarshal.
	v.SetDefault("paths.input_dir", "input_jsons")
	v.SetDefault("paths.reference_map", "news_websites_by_country.json")
	v.SetDefault("paths.overrides_file", "")

	v.SetDefault("daily.output_dir", "output_jsons/daily")
	v.SetDefault("daily.ledger_path", "processed_files_hash.log")
	v.SetDefault("daily.percent_basis", "total")
	v.SetDefault("daily.stories", "all")
	v.SetDefault("daily.merge_entries", false)
	v.SetDefault("daily.language", "")
	v.SetDefault("daily.entities", false)
	v.SetDefault("daily.ner_text", "title_body")
	v.SetDefault("daily.unmatched_log", "")
	v.SetDefault("daily.week_key", "")
	v.SetDefault("daily.week_cap", 0)

	v.SetDefault("weekly.output_dir", "output_jsons/weekly")
	v.SetDefault("weekly.ledger_path", "processed_weekly_hash.log")
	v.SetDefault("weekly.percent_basis", "top")
	v.SetDefault("weekly.stories", "all")
	v.SetDefault("weekly.merge_entries", true)
	v.SetDefault("weekly.language", "")
	v.SetDefault("weekly.entities", true)
	v.SetDefault("weekly.ner_text", "title_body")
	v.SetDefault("weekly.unmatched_log", "unmatched_sources_weekly.txt")
	v.SetDefault("weekly.week_key", "monday")
	v.SetDefault("weekly.week_cap", 0)

	v.SetDefault("ledger.driver", "file")
	v.SetDefault("ledger.database_url", "")
	v.SetDefault("report.mode", "merge")
	v.SetDefault("report.state_dir", "")

	v.SetDefault("ner.api_key", "")
	v.SetDefault("ner.base_url", "https://analytics.eventregistry.org/api/v1")
	v.SetDefault("ner.timeout_secs", 15)
	v.SetDefault("ner.rate_per_sec", 5.0)
	v.SetDefault("ner.concurrency", 4)
	v.SetDefault("ner.max_attempts", 3)
	v.SetDefault("ner.types", []string{"person", "org", "organization", "loc", "location", "place", "gpe"})
	v.SetDefault("ner.exclude_types", []string{"date", "number", "time", "percent"})
	v.SetDefault("ner.failure_threshold", 5)
	v.SetDefault("ner.reset_timeout_secs", 30)

	v.SetDefault("resolver.min_substring_len", 3)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return eris.Errorf("config: %s must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
}

// Validate rejects unknown enum values and impossible limits.
func (c *Config) Validate() error {
	var errs []error
	for _, kind := range []string{"daily", "weekly"} {
		r := c.ReportFor(kind)
		errs = append(errs,
			oneOf(kind+".percent_basis", r.PercentBasis, "total", "top"),
			oneOf(kind+".stories", r.Stories, "all", "first"),
			oneOf(kind+".ner_text", r.NERText, "title", "title_body"),
		)
		if r.OutputDir == "" {
			errs = append(errs, eris.Errorf("config: %s.output_dir is required", kind))
		}
		if c.Ledger.Driver == "file" && r.LedgerPath == "" {
			errs = append(errs, eris.Errorf("config: %s.ledger_path is required for the file ledger", kind))
		}
	}
	errs = append(errs, oneOf("weekly.week_key", c.Weekly.WeekKey, "monday", "month_week"))
	if c.Weekly.WeekCap < 0 {
		errs = append(errs, eris.New("config: weekly.week_cap must not be negative"))
	}
	errs = append(errs,
		oneOf("ledger.driver", c.Ledger.Driver, "file", "sqlite", "postgres"),
		oneOf("report.mode", c.Report.Mode, "merge", "replace"),
		oneOf("log.format", c.Log.Format, "json", "console"),
	)
	if c.Ledger.Driver == "postgres" && c.Ledger.DatabaseURL == "" {
		errs = append(errs, eris.New("config: ledger.database_url is required for the postgres ledger"))
	}
	if c.NER.Concurrency < 1 {
		errs = append(errs, eris.New("config: ner.concurrency must be at least 1"))
	}
	if c.Resolver.MinSubstringLen < 1 {
		errs = append(errs, eris.New("config: resolver.min_substring_len must be at least 1"))
	}
	return errors.Join(errs...)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
