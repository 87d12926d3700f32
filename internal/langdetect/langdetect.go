// Package langdetect restricts articles to one language, using the export's
// language tag when present and statistical detection otherwise.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/sells-group/coverage-cli/internal/model"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build()
	})
	return detector
}

// DetectISO6393 returns the lower-case ISO 639-3 code of text, or "" when
// the text is too short or no language is reliable.
func DetectISO6393(text string) string {
	sample := strings.TrimSpace(text)
	letters := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 6 {
		return ""
	}
	lang, ok := getDetector().DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_3().String())
}

// Gate admits articles in a single language.
type Gate struct {
	want   string
	detect func(string) string
}

// NewGate returns a gate for an ISO 639-3 code such as "eng", or nil when
// lang is empty.
func NewGate(lang string, opts ...Option) *Gate {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil
	}
	g := &Gate{want: lang, detect: DetectISO6393}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Option configures a Gate.
type Option func(*Gate)

// WithDetector replaces the statistical detector.
func WithDetector(fn func(string) string) Option {
	return func(g *Gate) { g.detect = fn }
}

// Language returns the admitted language code.
func (g *Gate) Language() string {
	if g == nil {
		return ""
	}
	return g.want
}

// Allow reports whether a passes. A nil gate admits everything.
func (g *Gate) Allow(a model.Article) bool {
	if g == nil {
		return true
	}
	if tag := strings.TrimSpace(a.Lang); tag != "" {
		return strings.EqualFold(tag, g.want)
	}
	return g.detect(strings.TrimSpace(a.Title+" "+a.Body)) == g.want
}
