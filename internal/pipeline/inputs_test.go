package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInputs_SortedJSONOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.JSON", "notes.txt", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	files, err := ListInputs(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JSON"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.json"),
	}, files)
}

func TestListInputs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("[]"), 0o644))

	files, err := ListInputs(dir, "a.json")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json")}, files)

	files, err = ListInputs(dir, "elsewhere/x.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"elsewhere/x.json"}, files)

	abs := filepath.Join(t.TempDir(), "y.json")
	files, err = ListInputs(dir, abs)
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, files)

	_, err = ListInputs(dir, "a.csv")
	assert.Error(t, err)
}

func TestListInputs_MissingDir(t *testing.T) {
	_, err := ListInputs(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)
}
