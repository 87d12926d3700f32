package country

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmatchedLog_FlushAppendsSortedNewLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unmatched_sources_weekly.txt")
	require.NoError(t, os.WriteFile(path, []byte("Beta Times\n"), 0o644))

	u := NewUnmatchedLog(path)
	u.Add("Gamma Post")
	u.Add("Beta Times")
	u.Add("Alpha News")
	u.Add("Alpha News")
	u.Add("  ")
	assert.Equal(t, 3, u.Len())

	n, err := u.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, u.Len())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Beta Times\nAlpha News\nGamma Post\n", string(raw))

	u.Add("Alpha News")
	n, err = u.Flush()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnmatchedLog_EmptyPathDiscards(t *testing.T) {
	u := NewUnmatchedLog("")
	u.Add("x")
	n, err := u.Flush()
	require.NoError(t, err)
	assert.Zero(t, n)

	var nilLog *UnmatchedLog
	nilLog.Add("x")
	_, err = nilLog.Flush()
	assert.NoError(t, err)
}
