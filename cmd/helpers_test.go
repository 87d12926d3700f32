package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `
paths:
  input_dir: in
  reference_map: ref.json
daily:
  output_dir: out/daily
  ledger_path: daily.log
weekly:
  output_dir: out/weekly
  ledger_path: weekly.log
  unmatched_log: unmatched.txt
log:
  level: error
`

const testReference = `{"United Kingdom": ["BBC News"], "India": ["Times of India"]}`

const testExport = `{"events":{"results":[
  {"uri":"eng-1","stories":[
    {"articleCount":3,"medoidArticle":{"title":"Summit opens","dateTimePub":"2024-03-06T08:00:00Z","url":"https://bbc.example/a","source":{"title":"BBC News","uri":"bbc.co.uk"}}},
    {"articleCount":7,"medoidArticle":{"title":"Summit closes","dateTimePub":"2024-03-06T18:00:00Z","url":"https://lemonde.example/b","source":{"title":"Le Monde","uri":"lemonde.fr","location":{"country":{"label":{"eng":"France"}}}}}}
  ]},
  {"uri":"eng-2","stories":[
    {"medoidArticle":{"title":"Storm","dateTimePub":"2024-03-07T08:00:00Z","url":"https://x.example/c","source":{"title":"Mystery Gazette"}}}
  ]}
]}}`

// workspace chdirs into a temp dir holding a config, a reference map and an
// input directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ref.json"), []byte(testReference), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "in"), 0o755))
	return dir
}

// resetFlags clears flag values left over from an earlier execution.
func resetFlags() {
	dailyForce, weeklyForce = false, false
	_ = ledgerListCmd.Flags().Set("kind", "daily")
	for _, name := range []string{"title", "country", "uri"} {
		_ = resolveCmd.Flags().Set(name, "")
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags()
	})
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
