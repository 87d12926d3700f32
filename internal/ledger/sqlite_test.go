package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLedger_RecordAndReload(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "ledger.db")

	l, err := OpenSQLite(ctx, dsn, "daily", "run-1")
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, digestA, "a.json"))
	require.NoError(t, l.Record(ctx, digestB, "b.json"))
	require.NoError(t, l.Close())

	reopened, err := OpenSQLite(ctx, dsn, "daily", "run-2")
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	entries := reopened.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, digestA, entries[0].Digest)
	assert.Equal(t, "a.json", entries[0].File)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.False(t, entries[0].RecordedAt.IsZero())
	assert.True(t, reopened.IsProcessed(digestB))
}

func TestSQLiteLedger_KindsAreIsolated(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "ledger.db")

	daily, err := OpenSQLite(ctx, dsn, "daily", "")
	require.NoError(t, err)
	require.NoError(t, daily.Record(ctx, digestA, "a.json"))
	require.NoError(t, daily.Close())

	weekly, err := OpenSQLite(ctx, dsn, "weekly", "")
	require.NoError(t, err)
	defer weekly.Close() //nolint:errcheck
	assert.False(t, weekly.IsProcessed(digestA))
}

func TestSQLiteLedger_RejectsInvalidDigest(t *testing.T) {
	ctx := context.Background()
	l, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "ledger.db"), "daily", "")
	require.NoError(t, err)
	defer l.Close() //nolint:errcheck

	assert.ErrorIs(t, l.Record(ctx, "XYZ", "a.json"), ErrCorrupt)
}
