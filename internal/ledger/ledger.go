// Package ledger records which input files have already been folded into
// reports, keyed by a digest of their raw bytes.
package ledger

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCorrupt is returned when a persisted ledger entry cannot be parsed.
var ErrCorrupt = eris.New("ledger: corrupt entry")

// Entry is one recorded input file.
type Entry struct {
	Digest     string    `json:"digest"`
	File       string    `json:"file"`
	RunID      string    `json:"run_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Ledger is an append-only log of processed input digests. Implementations
// load every entry into memory when opened.
type Ledger interface {
	// IsProcessed reports whether digest has been recorded.
	IsProcessed(digest string) bool
	// Record durably appends an entry for digest.
	Record(ctx context.Context, digest, file string) error
	// All returns the set of recorded digests.
	All() map[string]struct{}
	// Entries returns every entry in append order.
	Entries() []Entry
	Close() error
}

// Config selects and configures a ledger backend.
type Config struct {
	Driver      string // file, sqlite or postgres
	Path        string // file ledger path
	DatabaseURL string // sqlite DSN or postgres connection string
	Kind        string // report kind sharing one SQL table
	RunID       string
}

// Open opens the configured ledger backend and loads its entries.
func Open(ctx context.Context, cfg Config) (Ledger, error) {
	var (
		l   Ledger
		err error
	)
	switch cfg.Driver {
	case "", "file":
		l, err = OpenFile(cfg.Path)
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "coverage.db"
		}
		l, err = OpenSQLite(ctx, dsn, cfg.Kind, cfg.RunID)
	case "postgres":
		l, err = OpenPostgres(ctx, cfg.DatabaseURL, cfg.Kind, cfg.RunID)
	default:
		return nil, eris.Errorf("ledger: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Digest returns the hex MD5 of raw file bytes. Any byte-level change,
// whitespace included, produces a new digest.
func Digest(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// ValidDigest reports whether s looks like a digest produced by Digest.
func ValidDigest(s string) bool {
	if len(s) != md5.Size*2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ParseLine parses a "<digest> <filename>" ledger line.
func ParseLine(line string) (Entry, error) {
	digest, file, ok := strings.Cut(strings.TrimRight(line, "\r\n"), " ")
	file = strings.TrimSpace(file)
	if !ok || file == "" {
		return Entry{}, eris.Wrapf(ErrCorrupt, "missing filename in %q", line)
	}
	if !ValidDigest(digest) {
		return Entry{}, eris.Wrapf(ErrCorrupt, "invalid digest %q", digest)
	}
	return Entry{Digest: digest, File: file}, nil
}

// FormatLine renders an entry in the file ledger format.
func FormatLine(e Entry) string {
	return e.Digest + " " + e.File
}

// index is the in-memory view shared by every backend.
type index struct {
	entries []Entry
	seen    map[string]struct{}
}

func newIndex() index {
	return index{seen: make(map[string]struct{})}
}

func (x *index) add(e Entry) {
	x.entries = append(x.entries, e)
	x.seen[e.Digest] = struct{}{}
}

func (x *index) IsProcessed(digest string) bool {
	_, ok := x.seen[digest]
	return ok
}

func (x *index) All() map[string]struct{} {
	out := make(map[string]struct{}, len(x.seen))
	for d := range x.seen {
		out[d] = struct{}{}
	}
	return out
}

func (x *index) Entries() []Entry {
	return append([]Entry(nil), x.entries...)
}
