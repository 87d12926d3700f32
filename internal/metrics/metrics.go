// Package metrics holds the run counters of a report build and exports them
// in the Prometheus text format.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

// Drop reasons for articles that are not folded.
const (
	DropMissingURI    = "missing_uri"
	DropMissingMedoid = "missing_medoid"
	DropBadTimestamp  = "bad_timestamp"
	DropLanguage      = "language"
	DropAlreadyFolded = "already_folded"
)

// Run is the counter set of one invocation, labeled by report kind.
type Run struct {
	registry *prometheus.Registry
	kind     string

	filesProcessed  prometheus.Counter
	filesSkipped    prometheus.Counter
	filesFailed     prometheus.Counter
	articlesFolded  prometheus.Counter
	articlesDropped *prometheus.CounterVec
	unresolved      prometheus.Counter
	nerFailures     prometheus.Counter
	bucketsWritten  prometheus.Counter
}

// NewRun registers a fresh counter set on its own registry.
func NewRun(kind string) *Run {
	labels := prometheus.Labels{"kind": kind}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "coverage",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	r := &Run{
		registry:       prometheus.NewRegistry(),
		kind:           kind,
		filesProcessed: counter("files_processed_total", "Input files folded into reports."),
		filesSkipped:   counter("files_skipped_total", "Input files skipped because their digest was already recorded."),
		filesFailed:    counter("files_failed_total", "Input files that failed to read, decode or checkpoint."),
		articlesFolded: counter("articles_folded_total", "Articles added to a bucket."),
		articlesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "coverage",
			Name:        "articles_dropped_total",
			Help:        "Articles not folded, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		unresolved:     counter("sources_unresolved_total", "Articles whose source country could not be resolved."),
		nerFailures:    counter("ner_failures_total", "Entity extraction calls that failed."),
		bucketsWritten: counter("buckets_written_total", "Report files written."),
	}
	r.registry.MustRegister(
		r.filesProcessed, r.filesSkipped, r.filesFailed,
		r.articlesFolded, r.articlesDropped,
		r.unresolved, r.nerFailures, r.bucketsWritten,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

func (r *Run) FileProcessed() { r.filesProcessed.Inc() }
func (r *Run) FileSkipped() { r.filesSkipped.Inc() }
func (r *Run) FileFailed() { r.filesFailed.Inc() }
func (r *Run) ArticleFolded() { r.articlesFolded.Inc() }
func (r *Run) Dropped(reason string) { r.articlesDropped.WithLabelValues(reason).Inc() }
func (r *Run) Unresolved() { r.unresolved.Inc() }
func (r *Run) NERFailure() { r.nerFailures.Inc() }
func (r *Run) BucketWritten() { r.bucketsWritten.Inc() }

// WriteTextfile writes every counter to path for a node_exporter textfile
// collector. An empty path is a no-op.
func (r *Run) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "metrics: create dir for %s", path)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
