package country

import (
	"strings"

	"github.com/sells-group/coverage-cli/internal/model"
)

// Step names the cascade stage that produced a resolution.
type Step string

const (
	StepStructured Step = "structured"
	StepExact      Step = "reference_exact"
	StepSubstring  Step = "reference_substring"
	StepSuffix     Step = "domain_suffix"
	StepUnresolved Step = "unresolved"
)

// DefaultMinSubstringLen is the shortest reference key used for substring
// matching.
const DefaultMinSubstringLen = 3

// Resolution is the outcome of resolving one source.
type Resolution struct {
	Country string
	Code    string
	Step    Step
}

// Resolved reports whether any cascade stage matched.
func (r Resolution) Resolved() bool { return r.Step != StepUnresolved }

// Resolver maps an article source to a country through, in order: the
// structured country label unless it is "Unknown", an exact reference-map hit on the source title,
// a substring reference-map hit, and the source URI's country-code suffix.
type Resolver struct {
	ref       *Reference
	catalog   *Catalog
	overrides map[string]string
	suffixes  map[string]string
	minSubstr int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOverrides replaces the name override and suffix tables.
func WithOverrides(o Overrides) Option {
	return func(r *Resolver) {
		r.overrides, r.suffixes = o.Merge()
	}
}

// WithMinSubstringLen sets the minimum reference key length for substring
// matches. Values below 1 are ignored.
func WithMinSubstringLen(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.minSubstr = n
		}
	}
}

// WithCatalog sets the ISO catalog.
func WithCatalog(c *Catalog) Option {
	return func(r *Resolver) { r.catalog = c }
}

// NewResolver builds a Resolver over ref. A nil ref disables the
// reference-map stages.
func NewResolver(ref *Reference, opts ...Option) *Resolver {
	r := &Resolver{ref: ref, minSubstr: DefaultMinSubstringLen}
	r.overrides, r.suffixes = Overrides{}.Merge()
	for _, o := range opts {
		o(r)
	}
	if r.catalog == nil {
		r.catalog = DefaultCatalog()
	}
	return r
}

// Resolve never fails; sources nothing matches resolve to "Unknown"/"UN".
func (r *Resolver) Resolve(src model.Source) Resolution {
	country, step := r.cascade(src)
	if step == StepUnresolved {
		return Resolution{Country: UnknownName, Code: UnknownCode, Step: step}
	}
	if o, ok := r.overrides[country]; ok {
		country = o
	}
	return Resolution{Country: country, Code: r.catalog.Code(country), Step: step}
}

func (r *Resolver) cascade(src model.Source) (string, Step) {
	if c := strings.TrimSpace(src.Country); c != "" && !strings.EqualFold(c, UnknownName) {
		return c, StepStructured
	}
	title := strings.TrimSpace(src.Title)
	if title != "" {
		if c, ok := r.ref.Exact(title); ok {
			return c, StepExact
		}
		if c, ok := r.ref.Contains(title, r.minSubstr); ok {
			return c, StepSubstring
		}
	}
	if sfx := Suffix(src.URI); sfx != "" {
		if c, ok := r.suffixes[sfx]; ok {
			return c, StepSuffix
		}
	}
	return "", StepUnresolved
}

// Name returns the display name for an alpha-2 code.
func (r *Resolver) Name(code string) string {
	return r.catalog.Name(code)
}

// SourceIdentifier is the label recorded for a source that could not be
// resolved: its title, else its URI, else "Unknown Source".
func SourceIdentifier(src model.Source) string {
	if t := strings.TrimSpace(src.Title); t != "" {
		return t
	}
	if u := strings.TrimSpace(src.URI); u != "" {
		return u
	}
	return "Unknown Source"
}
