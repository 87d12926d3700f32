package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/aggregate"
	"github.com/sells-group/coverage-cli/internal/config"
	"github.com/sells-group/coverage-cli/internal/country"
	"github.com/sells-group/coverage-cli/internal/entity"
	"github.com/sells-group/coverage-cli/internal/langdetect"
	"github.com/sells-group/coverage-cli/internal/ledger"
	"github.com/sells-group/coverage-cli/internal/metrics"
	"github.com/sells-group/coverage-cli/internal/period"
	"github.com/sells-group/coverage-cli/internal/pipeline"
	"github.com/sells-group/coverage-cli/internal/resilience"
	"github.com/sells-group/coverage-cli/pkg/eventregistry"
)

// runEnv holds everything a report run needs.
type runEnv struct {
	Runner *pipeline.Runner
	Ledger ledger.Ledger
}

// Close releases resources held by the run environment.
func (e *runEnv) Close() {
	if e.Ledger != nil {
		_ = e.Ledger.Close()
	}
}

// runRequest is the command-line part of a run.
type runRequest struct {
	Kind  string
	File  string
	Force bool
}

// initResolver loads the reference map and override tables.
func initResolver(c *config.Config) (*country.Resolver, error) {
	ref, err := country.LoadReference(c.Paths.ReferenceMap)
	if err != nil {
		return nil, err
	}
	overrides, err := country.LoadOverrides(c.Paths.OverridesFile)
	if err != nil {
		return nil, err
	}
	return country.NewResolver(ref,
		country.WithOverrides(overrides),
		country.WithMinSubstringLen(c.Resolver.MinSubstringLen),
	), nil
}

// initLedger opens the ledger of one report kind.
func initLedger(ctx context.Context, c *config.Config, kind, runID string) (ledger.Ledger, error) {
	return ledger.Open(ctx, ledger.Config{
		Driver:      c.Ledger.Driver,
		Path:        c.ReportFor(kind).LedgerPath,
		DatabaseURL: c.Ledger.DatabaseURL,
		Kind:        kind,
		RunID:       runID,
	})
}

// stateDir is where merge mode keeps bucket state for kind.
func stateDir(c *config.Config, kind string) string {
	if c.Report.StateDir == "" {
		return filepath.Join(c.ReportFor(kind).OutputDir, ".state")
	}
	return filepath.Join(c.Report.StateDir, kind)
}

// initTagger builds the entity tagger, or nil when tallying is off or no
// NER key is configured.
func initTagger(c *config.Config, rc config.ReportConfig, m *metrics.Run) *entity.Tagger {
	if !rc.Entities {
		return nil
	}
	if c.NER.APIKey == "" {
		zap.L().Warn("ner.api_key is empty, entity tallying disabled")
		return nil
	}

	policy := resilience.DefaultPolicy()
	policy.MaxAttempts = c.NER.MaxAttempts
	breaker := resilience.NewBreaker(
		c.NER.FailureThreshold,
		time.Duration(c.NER.ResetTimeoutSecs)*time.Second,
		resilience.WithStateChange(func(from, to resilience.State) {
			zap.L().Warn("ner circuit breaker state change",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}),
	)
	client := eventregistry.NewClient(c.NER.APIKey,
		eventregistry.WithBaseURL(c.NER.BaseURL),
		eventregistry.WithTimeout(time.Duration(c.NER.TimeoutSecs)*time.Second),
		eventregistry.WithRateLimit(c.NER.RatePerSec),
		eventregistry.WithRetry(policy),
		eventregistry.WithBreaker(breaker),
	)
	return entity.NewTagger(
		entity.FromEventRegistry(client),
		entity.NewFilter(c.NER.Types, c.NER.ExcludeTypes),
		entity.WithFailureHook(func(error) { m.NERFailure() }),
	)
}

// initRun wires a Runner from the loaded configuration. Callers should
// defer env.Close().
func initRun(ctx context.Context, c *config.Config, req runRequest) (*runEnv, error) {
	rc := c.ReportFor(req.Kind)
	runID := uuid.NewString()

	strategy, err := period.New(req.Kind, rc.WeekKey, rc.WeekCap)
	if err != nil {
		return nil, err
	}
	basis, err := aggregate.ParsePercentBasis(rc.PercentBasis)
	if err != nil {
		return nil, err
	}
	stories, err := pipeline.ParseStories(rc.Stories)
	if err != nil {
		return nil, err
	}
	resolver, err := initResolver(c)
	if err != nil {
		return nil, err
	}

	l, err := initLedger(ctx, c, req.Kind, runID)
	if err != nil {
		return nil, eris.Wrap(err, "open ledger")
	}

	var store *aggregate.StateStore
	if c.Report.Mode == "merge" {
		store = aggregate.NewStateStore(stateDir(c, req.Kind))
	}

	m := metrics.NewRun(req.Kind)
	tagger := initTagger(c, rc, m)

	runner := pipeline.New(pipeline.Options{
		Kind:            req.Kind,
		InputDir:        c.Paths.InputDir,
		File:            req.File,
		Force:           req.Force,
		Stories:         stories,
		NERText:         entity.TextMode(rc.NERText),
		Concurrency:     c.NER.Concurrency,
		MetricsTextfile: c.Metrics.Textfile,
		RunID:           runID,
	}, pipeline.Deps{
		Ledger:     l,
		Aggregator: aggregate.New(strategy, store),
		Writer: aggregate.Writer{
			Dir:      rc.OutputDir,
			Strategy: strategy,
			Finalizer: aggregate.Finalizer{
				Kind:         req.Kind,
				Basis:        basis,
				Entities:     tagger != nil,
				MergeEntries: rc.MergeEntries,
				CountryName:  resolver.Name,
			},
			Store: store,
		},
		Resolver:  resolver,
		Unmatched: country.NewUnmatchedLog(rc.UnmatchedLog),
		Gate:      langdetect.NewGate(rc.Language),
		Tagger:    tagger,
		Metrics:   m,
	})

	return &runEnv{Runner: runner, Ledger: l}, nil
}
