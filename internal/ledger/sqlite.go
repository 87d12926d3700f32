package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteLedger stores entries in a local SQLite table, one row per record.
type SQLiteLedger struct {
	index
	db    *sql.DB
	kind  string
	runID string
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	digest      TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	run_id      TEXT NOT NULL DEFAULT '',
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_kind_digest ON ledger_entries(kind, digest);
`

// OpenSQLite opens dsn, migrates the schema and loads the entries for kind.
func OpenSQLite(ctx context.Context, dsn, kind, runID string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "ledger: sqlite exec %s", pragma)
		}
	}

	l := &SQLiteLedger{index: newIndex(), db: db, kind: kind, runID: runID}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "ledger: sqlite migrate")
	}
	if err := l.load(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) load(ctx context.Context) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT digest, file_name, run_id, recorded_at FROM ledger_entries WHERE kind = ? ORDER BY id`,
		l.kind,
	)
	if err != nil {
		return eris.Wrap(err, "ledger: sqlite load")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Digest, &e.File, &e.RunID, &e.RecordedAt); err != nil {
			return eris.Wrap(err, "ledger: sqlite scan")
		}
		if !ValidDigest(e.Digest) || e.File == "" {
			return eris.Wrapf(ErrCorrupt, "sqlite row digest=%q file=%q", e.Digest, e.File)
		}
		l.add(e)
	}
	return eris.Wrap(rows.Err(), "ledger: sqlite load iterate")
}

func (l *SQLiteLedger) Record(ctx context.Context, digest, file string) error {
	if !ValidDigest(digest) {
		return eris.Wrapf(ErrCorrupt, "refusing to record digest %q", digest)
	}
	now := time.Now().UTC()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (kind, digest, file_name, run_id, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		l.kind, digest, file, l.runID, now,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: sqlite insert %s", file)
	}
	l.add(Entry{Digest: digest, File: file, RunID: l.runID, RecordedAt: now})
	return nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
