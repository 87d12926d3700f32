// Package country resolves the country of a news source and maps country
// names to ISO 3166-1 alpha-2 codes.
package country

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	// UnknownCode is the ISO placeholder for unresolvable countries.
	UnknownCode = "UN"
	// UnknownName is the display name for codes outside the catalog.
	UnknownName = "Unknown"
)

// aliases maps official or legacy names that CLDR does not list to their
// alpha-2 code.
var aliases = map[string]string{
	"Russian Federation":                     "RU",
	"Korea, Republic of":                     "KR",
	"Republic of Korea":                      "KR",
	"Korea, Democratic People's Republic of": "KP",
	"Democratic People's Republic of Korea":  "KP",
	"Iran, Islamic Republic of":              "IR",
	"Syrian Arab Republic":                   "SY",
	"Türkiye":                                "TR",
	"Turkey":                                 "TR",
	"Viet Nam":                               "VN",
	"Czech Republic":                         "CZ",
	"Bolivia, Plurinational State of":        "BO",
	"Venezuela, Bolivarian Republic of":      "VE",
	"Tanzania, United Republic of":           "TZ",
	"Moldova, Republic of":                   "MD",
	"Lao People's Democratic Republic":       "LA",
	"Taiwan, Province of China":              "TW",
	"Palestine, State of":                    "PS",
	"Macedonia":                              "MK",
	"Swaziland":                              "SZ",
	"Ivory Coast":                            "CI",
	"Cote d'Ivoire":                          "CI",
	"Hong Kong":                              "HK",
	"Macao":                                  "MO",
	"Macau":                                  "MO",
	"Burma":                                  "MM",
	"Cape Verde":                             "CV",
	"Holy See":                               "VA",
	"Vatican City":                           "VA",
	"United States of America":               "US",
	"USA":                                    "US",
	"UK":                                     "GB",
	"Great Britain":                          "GB",
	"Congo, The Democratic Republic of the":  "CD",
	"Democratic Republic of the Congo":       "CD",
	"Republic of the Congo":                  "CG",
}

// Catalog is an in-memory ISO 3166-1 table built from CLDR region data.
type Catalog struct {
	byKey  map[string]string // folded name or code -> alpha-2
	byCode map[string]string // alpha-2 -> English name
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the process-wide catalog, building it on first use.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog()
	})
	return defaultCatalog
}

// NewCatalog enumerates every assigned two-letter country region.
func NewCatalog() *Catalog {
	c := &Catalog{
		byKey:  make(map[string]string),
		byCode: make(map[string]string),
	}
	names := display.English.Regions()
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			if code == UnknownCode {
				continue
			}
			r, err := language.ParseRegion(code)
			if err != nil || !r.IsCountry() || r.IsPrivateUse() || r.String() != code {
				continue
			}
			name := names.Name(r)
			if name == "" {
				continue
			}
			c.byCode[code] = name
			c.byKey[foldKey(code)] = code
			c.byKey[foldKey(name)] = code
			if iso3 := r.ISO3(); iso3 != "" {
				c.byKey[foldKey(iso3)] = code
			}
		}
	}
	for name, code := range aliases {
		if _, ok := c.byCode[code]; ok {
			c.byKey[foldKey(name)] = code
		}
	}
	return c
}

// foldKey normalizes s for case-insensitive lookups. A Caser is stateful,
// so one is created per call.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Code returns the alpha-2 code for a country name, alpha-2 or alpha-3
// code, or UnknownCode.
func (c *Catalog) Code(name string) string {
	if code, ok := c.byKey[foldKey(name)]; ok {
		return code
	}
	return UnknownCode
}

// Name returns the English name for an alpha-2 code, or UnknownName.
func (c *Catalog) Name(code string) string {
	if name, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return UnknownName
}

// Codes returns every alpha-2 code in the catalog, sorted.
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.byCode))
	for code := range c.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
