package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// pgPool is the subset of pgxpool.Pool used by PostgresLedger.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresLedger stores entries in a shared Postgres table so several hosts
// can gate on the same ledger.
type PostgresLedger struct {
	index
	pool  pgPool
	kind  string
	runID string
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT NOT NULL,
	digest      TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	run_id      TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_kind_digest ON ledger_entries(kind, digest);
`

// OpenPostgres connects, migrates the schema and loads the entries for kind.
func OpenPostgres(ctx context.Context, connString, kind, runID string) (*PostgresLedger, error) {
	if connString == "" {
		return nil, eris.New("ledger: postgres database_url is required")
	}
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: postgres parse config")
	}
	pgxCfg.MaxConns = 2
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: postgres create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ledger: postgres ping")
	}

	l, err := newPostgresLedger(ctx, pool, kind, runID)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

func newPostgresLedger(ctx context.Context, pool pgPool, kind, runID string) (*PostgresLedger, error) {
	l := &PostgresLedger{index: newIndex(), pool: pool, kind: kind, runID: runID}
	if err := l.migrate(ctx); err != nil {
		return nil, err
	}
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *PostgresLedger) migrate(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "ledger: postgres migrate")
}

func (l *PostgresLedger) load(ctx context.Context) error {
	rows, err := l.pool.Query(ctx,
		`SELECT digest, file_name, run_id, recorded_at FROM ledger_entries WHERE kind = $1 ORDER BY id`,
		l.kind,
	)
	if err != nil {
		return eris.Wrap(err, "ledger: postgres load")
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Digest, &e.File, &e.RunID, &e.RecordedAt); err != nil {
			return eris.Wrap(err, "ledger: postgres scan")
		}
		if !ValidDigest(e.Digest) || e.File == "" {
			return eris.Wrapf(ErrCorrupt, "postgres row digest=%q file=%q", e.Digest, e.File)
		}
		l.add(e)
	}
	return eris.Wrap(rows.Err(), "ledger: postgres load iterate")
}

func (l *PostgresLedger) Record(ctx context.Context, digest, file string) error {
	if !ValidDigest(digest) {
		return eris.Wrapf(ErrCorrupt, "refusing to record digest %q", digest)
	}
	now := time.Now().UTC()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO ledger_entries (kind, digest, file_name, run_id, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		l.kind, digest, file, l.runID, now,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: postgres insert %s", file)
	}
	l.add(Entry{Digest: digest, File: file, RunID: l.runID, RecordedAt: now})
	return nil
}

func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}
