package country

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

//go:embed reference.schema.json
var referenceSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func referenceSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("reference.schema.json", strings.NewReader(referenceSchemaJSON)); err != nil {
			schemaErr = eris.Wrap(err, "country: add reference schema")
			return
		}
		schema, schemaErr = compiler.Compile("reference.schema.json")
		if schemaErr != nil {
			schemaErr = eris.Wrap(schemaErr, "country: compile reference schema")
		}
	})
	return schema, schemaErr
}

type refKey struct {
	folded  string
	country string
}

// Reference is the inverted source-name -> country map.
type Reference struct {
	exact map[string]string
	// keys ordered longest first, then lexicographically
	keys []refKey
}

// LoadReference reads and validates a country -> [source name] document.
// A missing file yields an empty reference, leaving only the structured and
// domain-suffix stages.
func LoadReference(path string) (*Reference, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("country: reference map not found, using an empty map", zap.String("path", path))
		return NewReference(nil), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "country: read reference map %s", path)
	}
	ref, err := ParseReference(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "country: reference map %s", path)
	}
	return ref, nil
}

// ParseReference validates raw against the reference schema and inverts it.
// When a source is listed under two countries the first country in sorted
// order wins.
func ParseReference(raw []byte) (*Reference, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "country: decode reference map")
	}
	s, err := referenceSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, eris.Wrap(err, "country: reference map schema")
	}

	var byCountry map[string][]string
	if err := json.Unmarshal(raw, &byCountry); err != nil {
		return nil, eris.Wrap(err, "country: unmarshal reference map")
	}
	return NewReference(byCountry), nil
}

// NewReference inverts a country -> sources map.
func NewReference(byCountry map[string][]string) *Reference {
	ref := &Reference{exact: make(map[string]string)}

	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	for _, c := range countries {
		for _, src := range byCountry[c] {
			k := foldKey(src)
			if k == "" {
				continue
			}
			if prev, ok := ref.exact[k]; ok {
				if prev != c {
					zap.L().Debug("country: reference source listed twice",
						zap.String("source", src),
						zap.String("kept", prev),
						zap.String("ignored", c),
					)
				}
				continue
			}
			ref.exact[k] = c
			ref.keys = append(ref.keys, refKey{folded: k, country: c})
		}
	}
	sort.Slice(ref.keys, func(i, j int) bool {
		a, b := ref.keys[i].folded, ref.keys[j].folded
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return ref
}

// Len returns the number of distinct source names.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.exact)
}

// Exact returns the country whose source list contains title verbatim,
// ignoring case and surrounding whitespace.
func (r *Reference) Exact(title string) (string, bool) {
	if r == nil {
		return "", false
	}
	c, ok := r.exact[foldKey(title)]
	return c, ok
}

// Contains returns the country of the first source name of at least minLen
// bytes that appears inside title.
func (r *Reference) Contains(title string, minLen int) (string, bool) {
	if r == nil {
		return "", false
	}
	t := cases.Fold().String(title)
	if strings.TrimSpace(t) == "" {
		return "", false
	}
	for _, k := range r.keys {
		if len(k.folded) < minLen {
			// keys are sorted by length, nothing shorter can qualify
			break
		}
		if strings.Contains(t, k.folded) {
			return k.country, true
		}
	}
	return "", false
}
