package country

import (
	"maps"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultOverrides rewrites common short names into the official names the
// ISO lookup expects.
func DefaultOverrides() map[string]string {
	return map[string]string{
		"Russia":      "Russian Federation",
		"South Korea": "Korea, Republic of",
		"North Korea": "Korea, Democratic People's Republic of",
		"Iran":        "Iran, Islamic Republic of",
		"Syria":       "Syrian Arab Republic",
		"Turkey":      "Türkiye",
	}
}

// DefaultSuffixCountries maps country-code top-level domains to countries.
func DefaultSuffixCountries() map[string]string {
	return map[string]string{
		"uk": "United Kingdom",
		"us": "United States",
		"ca": "Canada",
		"au": "Australia",
		"in": "India",
		"cn": "China",
		"jp": "Japan",
		"de": "Germany",
		"fr": "France",
		"ru": "Russia",
		"za": "South Africa",
		"br": "Brazil",
		"kr": "South Korea",
		"ng": "Nigeria",
		"ae": "United Arab Emirates",
		"pk": "Pakistan",
		"bd": "Bangladesh",
	}
}

// Overrides is the optional YAML file merged over the built-in tables.
type Overrides struct {
	CountryOverrides map[string]string `yaml:"country_overrides"`
	SuffixCountries  map[string]string `yaml:"suffix_countries"`
}

// LoadOverrides reads an overrides file. An empty path yields no overrides.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	if strings.TrimSpace(path) == "" {
		return o, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return o, eris.Wrapf(err, "country: read overrides %s", path)
	}
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return o, eris.Wrapf(err, "country: parse overrides %s", path)
	}
	return o, nil
}

// Merge returns the built-in tables with o applied on top.
func (o Overrides) Merge() (names, suffixes map[string]string) {
	names = DefaultOverrides()
	maps.Copy(names, o.CountryOverrides)
	suffixes = DefaultSuffixCountries()
	for k, v := range o.SuffixCountries {
		suffixes[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(k), "."))] = v
	}
	return names, suffixes
}
