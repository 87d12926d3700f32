package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"daily", "weekly", "ledger", "resolve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "coverage-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("env")
	require.NotNil(t, flag)
	assert.Equal(t, ".env", flag.DefValue)
}

func TestReportCommands_Flags(t *testing.T) {
	for _, c := range []string{"daily", "weekly"} {
		cmd, _, err := rootCmd.Find([]string{c})
		require.NoError(t, err)
		flag := cmd.Flags().Lookup("force")
		require.NotNil(t, flag, "%s should have --force", c)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestRootCmd_PersistentPreRunE_WithValidConfig(t *testing.T) {
	workspace(t)

	oldCfg := cfg
	cfg = nil
	defer func() { cfg = oldCfg }()

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "in", cfg.Paths.InputDir)
	assert.Equal(t, "out/daily", cfg.Daily.OutputDir)
}

func TestRootCmd_PersistentPreRunE_InvalidEnum(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("weekly:\n  week_key: sunday\n"), 0o644))

	oldCfg := cfg
	defer func() { cfg = oldCfg }()

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly.week_key")
}

func TestRootCmd_PersistentPreRunE_BadLogLevel(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: loud\n"), 0o644))

	oldCfg := cfg
	defer func() { cfg = oldCfg }()

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init logger")
}

func TestRootCmd_EnvFileFeedsConfig(t *testing.T) {
	dir := workspace(t)
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("COVERAGE_RESOLVER_MIN_SUBSTRING_LEN=7\n"), 0o644))
	t.Setenv("COVERAGE_RESOLVER_MIN_SUBSTRING_LEN", "")
	os.Unsetenv("COVERAGE_RESOLVER_MIN_SUBSTRING_LEN")

	oldCfg, oldEnv := cfg, envFile
	envFile = envPath
	defer func() { cfg, envFile = oldCfg, oldEnv }()

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	assert.Equal(t, 7, cfg.Resolver.MinSubstringLen)
}
