package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/coverage-cli/internal/aggregate"
	"github.com/sells-group/coverage-cli/internal/country"
	"github.com/sells-group/coverage-cli/internal/entity"
	"github.com/sells-group/coverage-cli/internal/metrics"
	"github.com/sells-group/coverage-cli/internal/model"
	"github.com/sells-group/coverage-cli/internal/period"
)

// Stories selects which stories of an event are folded.
type Stories string

const (
	// StoriesAll folds every story.
	StoriesAll Stories = "all"
	// StoriesFirst folds only the first story of each event.
	StoriesFirst Stories = "first"
)

// ParseStories validates a configured story selection.
func ParseStories(s string) (Stories, error) {
	switch v := Stories(s); v {
	case "", StoriesAll:
		return StoriesAll, nil
	case StoriesFirst:
		return v, nil
	default:
		return "", eris.Errorf("pipeline: unknown story selection %q", s)
	}
}

// annotate turns decoded events into fold-ready records. Records whose
// bucket already holds this file are kept out of entity extraction; Fold
// skips them again.
func (r *Runner) annotate(ctx context.Context, digest string, events []model.Event) ([]aggregate.Record, error) {
	var (
		records []aggregate.Record
		texts   []string
	)
	for _, ev := range events {
		stories := ev.Stories
		if r.opts.Stories == StoriesFirst && len(stories) > 1 {
			stories = stories[:1]
		}
		for _, st := range stories {
			rec, text, ok := r.annotateStory(digest, ev.URI, st)
			if !ok {
				continue
			}
			records = append(records, rec)
			texts = append(texts, text)
		}
	}

	if r.deps.Tagger == nil {
		return records, nil
	}

	pending := make([]int, 0, len(records))
	for i, rec := range records {
		done, err := r.deps.Aggregator.AlreadyFolded(rec)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load bucket state")
		}
		if !done {
			pending = append(pending, i)
		}
	}

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for _, i := range pending {
		g.Go(func() error {
			records[i].Entities = r.deps.Tagger.Tag(ctx, texts[i])
			return nil
		})
	}
	_ = g.Wait()
	return records, nil
}

func (r *Runner) annotateStory(digest, eventURI string, st model.Story) (aggregate.Record, string, bool) {
	if eventURI == "" {
		r.deps.Metrics.Dropped(metrics.DropMissingURI)
		return aggregate.Record{}, "", false
	}
	a := st.Medoid
	if a == nil {
		r.deps.Metrics.Dropped(metrics.DropMissingMedoid)
		return aggregate.Record{}, "", false
	}
	published, err := period.ParsePublished(a.DateTimePub)
	if err != nil {
		r.deps.Metrics.Dropped(metrics.DropBadTimestamp)
		return aggregate.Record{}, "", false
	}
	if !r.deps.Gate.Allow(*a) {
		r.deps.Metrics.Dropped(metrics.DropLanguage)
		return aggregate.Record{}, "", false
	}

	res := r.deps.Resolver.Resolve(a.Source)
	if !res.Resolved() {
		id := country.SourceIdentifier(a.Source)
		r.deps.Unmatched.Add(id)
		r.deps.Metrics.Unresolved()
		r.log.Debug("pipeline: unresolved source", zap.String("source", id))
	}

	rec := aggregate.Record{
		Digest:       digest,
		EventURI:     eventURI,
		Title:        a.Title,
		URL:          a.URL,
		DateTimePub:  a.DateTimePub,
		Published:    published,
		ArticleCount: st.ArticleCount,
		Publisher:    a.Source.Title,
		Code:         res.Code,
	}
	return rec, entity.Text(*a, r.opts.NERText), true
}
