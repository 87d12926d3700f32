// Package pipeline runs one report build: it gates input files through the
// ledger, annotates their articles, folds them into period buckets and
// checkpoints reports after every file.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/aggregate"
	"github.com/sells-group/coverage-cli/internal/country"
	"github.com/sells-group/coverage-cli/internal/entity"
	"github.com/sells-group/coverage-cli/internal/export"
	"github.com/sells-group/coverage-cli/internal/langdetect"
	"github.com/sells-group/coverage-cli/internal/ledger"
	"github.com/sells-group/coverage-cli/internal/metrics"
)

// ErrFilesFailed is returned by Result.Err when at least one input file
// could not be folded.
var ErrFilesFailed = eris.New("pipeline: one or more input files failed")

// Options controls a single run.
type Options struct {
	// Kind is the report kind, "daily" or "weekly".
	Kind     string
	InputDir string
	// File restricts the run to one input. A relative path is looked up in
	// InputDir first.
	File string
	// Force folds files the ledger already lists.
	Force   bool
	Stories Stories
	NERText entity.TextMode
	// Concurrency bounds parallel entity extraction calls.
	Concurrency int
	// MetricsTextfile receives the run counters when set.
	MetricsTextfile string
	// RunID defaults to a random UUID.
	RunID string
}

// Deps are the collaborators of a Runner. Gate, Tagger, Unmatched and
// Metrics are optional.
type Deps struct {
	Ledger     ledger.Ledger
	Aggregator *aggregate.Aggregator
	Writer     aggregate.Writer
	Resolver   *country.Resolver
	Unmatched  *country.UnmatchedLog
	Gate       *langdetect.Gate
	Tagger     *entity.Tagger
	Metrics    *metrics.Run
}

// Runner executes runs.
type Runner struct {
	opts Options
	deps Deps
	log  *zap.Logger
}

// Result summarizes a run.
type Result struct {
	RunID     string
	Processed []string
	Skipped   []string
	Failed    []string
	// Reports lists every report path written, in write order.
	Reports []string
	Folded  int
}

// Err returns ErrFilesFailed when any file failed.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return eris.Wrapf(ErrFilesFailed, "%d failed: %v", len(r.Failed), r.Failed)
}

// New returns a Runner.
func New(opts Options, deps Deps) *Runner {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Stories == "" {
		opts.Stories = StoriesAll
	}
	if opts.NERText == "" {
		opts.NERText = entity.TextTitleBody
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRun(opts.Kind)
	}
	return &Runner{
		opts: opts,
		deps: deps,
		log: zap.L().With(
			zap.String("run_id", opts.RunID),
			zap.String("kind", opts.Kind),
		),
	}
}

// Run folds every selected input file. The returned error is non-nil only
// for failures that stop the run, such as an unlisting input directory or
// a ledger write error; per-file failures are reported through Result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.opts.RunID}

	files, err := ListInputs(r.opts.InputDir, r.opts.File)
	if err != nil {
		return res, err
	}
	r.log.Info("pipeline: starting run",
		zap.Int("files", len(files)),
		zap.Bool("force", r.opts.Force),
	)

	seen := make(map[string]struct{}, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "pipeline: run cancelled")
		}
		if err := r.processFile(ctx, path, seen, res); err != nil {
			return res, err
		}
	}

	if n, err := r.deps.Unmatched.Flush(); err != nil {
		r.log.Error("pipeline: failed to write unmatched sources", zap.Error(err))
	} else if n > 0 {
		r.log.Info("pipeline: recorded unmatched sources", zap.Int("new", n))
	}
	if err := r.deps.Metrics.WriteTextfile(r.opts.MetricsTextfile); err != nil {
		r.log.Warn("pipeline: failed to write metrics textfile", zap.Error(err))
	}

	r.log.Info("pipeline: run complete",
		zap.Int("processed", len(res.Processed)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("reports", len(res.Reports)),
		zap.Int("folded", res.Folded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (r *Runner) processFile(ctx context.Context, path string, seen map[string]struct{}, res *Result) error {
	name := filepath.Base(path)
	log := r.log.With(zap.String("file", name))

	fail := func(err error) {
		log.Error("pipeline: file failed", zap.Error(err))
		r.deps.Metrics.FileFailed()
		res.Failed = append(res.Failed, name)
	}
	skip := func(reason string) {
		log.Info("pipeline: skipping file", zap.String("reason", reason))
		r.deps.Metrics.FileSkipped()
		res.Skipped = append(res.Skipped, name)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		fail(eris.Wrapf(err, "pipeline: read %s", path))
		return nil
	}
	digest := ledger.Digest(raw)
	log = log.With(zap.String("digest", digest))

	if _, dup := seen[digest]; dup {
		skip("duplicate content in this run")
		return nil
	}
	seen[digest] = struct{}{}

	ledgered := r.deps.Ledger.IsProcessed(digest)
	if ledgered && !r.opts.Force {
		skip("already processed")
		return nil
	}

	events, err := export.Decode(raw)
	if err != nil {
		fail(eris.Wrapf(err, "pipeline: decode %s", name))
		return nil
	}

	records, err := r.annotate(ctx, digest, events)
	if err != nil {
		fail(err)
		return nil
	}

	reports, folded, err := r.checkpoint(records)
	if err != nil {
		fail(err)
		return nil
	}

	if !ledgered {
		if err := r.deps.Ledger.Record(ctx, digest, name); err != nil {
			return eris.Wrapf(err, "pipeline: record %s in ledger", name)
		}
	}

	r.deps.Metrics.FileProcessed()
	res.Processed = append(res.Processed, name)
	res.Reports = append(res.Reports, reports...)
	res.Folded += folded
	log.Info("pipeline: file processed",
		zap.Int("events", len(events)),
		zap.Int("folded", folded),
		zap.Int("reports", len(reports)),
	)
	return nil
}

// checkpoint folds one file's records and writes every bucket they touched
// in one WriteAll. On any error the file's folds are rolled back.
func (r *Runner) checkpoint(records []aggregate.Record) ([]string, int, error) {
	agg := r.deps.Aggregator
	agg.Begin()

	folded := 0
	for _, rec := range records {
		ok, err := agg.Fold(rec)
		if err != nil {
			agg.Rollback()
			return nil, 0, eris.Wrap(err, "pipeline: fold")
		}
		if !ok {
			r.deps.Metrics.Dropped(metrics.DropAlreadyFolded)
			continue
		}
		r.deps.Metrics.ArticleFolded()
		folded++
	}

	touched := agg.Touched()
	buckets := make([]*aggregate.Bucket, 0, len(touched))
	for _, key := range touched {
		buckets = append(buckets, agg.Bucket(key))
	}
	paths, err := r.deps.Writer.WriteAll(buckets)
	if err != nil {
		agg.Rollback()
		return nil, 0, eris.Wrapf(err, "pipeline: write buckets %v", touched)
	}
	for _, path := range paths {
		r.deps.Metrics.BucketWritten()
		r.log.Debug("pipeline: wrote report", zap.String("path", path))
	}
	agg.Commit()
	return paths, folded, nil
}
