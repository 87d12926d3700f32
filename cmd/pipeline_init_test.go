package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coverage-cli/internal/config"
	"github.com/sells-group/coverage-cli/internal/metrics"
)

func nerConfig(baseURL string) *config.Config {
	c := &config.Config{}
	c.NER = config.NERConfig{
		APIKey:           "er-key",
		BaseURL:          baseURL,
		TimeoutSecs:      2,
		MaxAttempts:      1,
		Types:            []string{"person", "org"},
		ExcludeTypes:     []string{"date"},
		FailureThreshold: 5,
		ResetTimeoutSecs: 30,
	}
	return c
}

func TestInitTagger_Wiring(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"entities":[
			{"label":"NATO","type":"org"},
			{"label":"NATO","type":"org"},
			{"label":"Monday","type":"date"},
			{"label":"she","type":"person"}
		]}`))
	}))
	defer srv.Close()

	c := nerConfig(srv.URL)
	tagger := initTagger(c, config.ReportConfig{Entities: true}, metrics.NewRun("weekly"))
	require.NotNil(t, tagger)
	assert.Equal(t, []string{"NATO"}, tagger.Tag(context.Background(), "NATO met on Monday"))
}

func TestInitTagger_FailureCounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	m := metrics.NewRun("weekly")
	tagger := initTagger(nerConfig(srv.URL), config.ReportConfig{Entities: true}, m)
	require.NotNil(t, tagger)
	assert.Nil(t, tagger.Tag(context.Background(), "NATO"))

	path := filepath.Join(t.TempDir(), "coverage.prom")
	require.NoError(t, m.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `coverage_ner_failures_total{kind="weekly"} 1`)
}

func TestInitTagger_Disabled(t *testing.T) {
	c := nerConfig("http://unused")
	assert.Nil(t, initTagger(c, config.ReportConfig{Entities: false}, metrics.NewRun("weekly")))

	c.NER.APIKey = ""
	assert.Nil(t, initTagger(c, config.ReportConfig{Entities: true}, metrics.NewRun("weekly")))
}

func TestStateDir(t *testing.T) {
	c := &config.Config{}
	c.Daily.OutputDir = "out/daily"
	assert.Equal(t, filepath.Join("out/daily", ".state"), stateDir(c, "daily"))

	c.Report.StateDir = "state"
	assert.Equal(t, filepath.Join("state", "weekly"), stateDir(c, "weekly"))
}

func TestInitRun_RejectsBadWeekKey(t *testing.T) {
	dir := workspace(t)
	c, err := config.Load()
	require.NoError(t, err)
	c.Weekly.WeekKey = "sunday"

	_, err = initRun(context.Background(), c, runRequest{Kind: "weekly"})
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "weekly.log"))
}
