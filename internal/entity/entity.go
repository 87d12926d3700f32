// Package entity turns named-entity recognition output into the per-article
// entity sets tallied by weekly reports.
package entity

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/model"
	"github.com/sells-group/coverage-cli/pkg/eventregistry"
)

// Mention is one recognized entity.
type Mention struct {
	Name string
	Type string
}

// Extractor recognizes entities in text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Mention, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, text string) ([]Mention, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string) ([]Mention, error) {
	return f(ctx, text)
}

// FromEventRegistry adapts the analytics client.
func FromEventRegistry(c eventregistry.Client) Extractor {
	return ExtractorFunc(func(ctx context.Context, text string) ([]Mention, error) {
		ents, err := c.NER(ctx, text)
		if err != nil {
			return nil, err
		}
		out := make([]Mention, 0, len(ents))
		for _, e := range ents {
			out = append(out, Mention{Name: e.Name(), Type: e.Type})
		}
		return out, nil
	})
}

// TextMode selects which article fields are sent for recognition.
type TextMode string

const (
	TextTitle     TextMode = "title"
	TextTitleBody TextMode = "title_body"
)

// Text returns the recognition input for a.
func Text(a model.Article, mode TextMode) string {
	if mode == TextTitle {
		return strings.TrimSpace(a.Title)
	}
	return strings.TrimSpace(a.Title + " " + a.Body)
}

// Tagger wraps an Extractor so that any failure yields no entities.
type Tagger struct {
	extractor Extractor
	filter    Filter
	timeout   time.Duration
	onFailure func(error)
}

// TaggerOption configures a Tagger.
type TaggerOption func(*Tagger)

// WithTimeout bounds each Extract call.
func WithTimeout(d time.Duration) TaggerOption {
	return func(t *Tagger) { t.timeout = d }
}

// WithFailureHook is called once per failed Extract.
func WithFailureHook(fn func(error)) TaggerOption {
	return func(t *Tagger) { t.onFailure = fn }
}

// NewTagger returns a Tagger applying filter to ex's output.
func NewTagger(ex Extractor, filter Filter, opts ...TaggerOption) *Tagger {
	t := &Tagger{extractor: ex, filter: filter}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Tag returns the distinct entity names in text, in first-seen order. It
// returns nil when text is blank or the extractor fails.
func (t *Tagger) Tag(ctx context.Context, text string) []string {
	if t == nil || t.extractor == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	mentions, err := t.extractor.Extract(ctx, text)
	if err != nil {
		zap.L().Warn("entity: extraction failed, contributing no entities",
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		if t.onFailure != nil {
			t.onFailure(err)
		}
		return nil
	}
	return t.filter.Apply(mentions)
}
