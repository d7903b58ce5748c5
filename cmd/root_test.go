package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "daemon", "score", "leads", "report", "config", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lead-agent", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	for _, name := range []string{"config", "data-dir", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing persistent flag --%s", name)
	}
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"no-outreach", "dry-run"} {
		flag := runCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "run should have --%s", name)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestDaemonCommand_Flags(t *testing.T) {
	require.NotNil(t, daemonCmd.Flags().Lookup("now"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLeadsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range leadsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "export"} {
		assert.True(t, names[name], "leads should have subcommand %q", name)
	}

	assert.Equal(t, "50", leadsListCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "csv", leadsExportCmd.Flags().Lookup("format").DefValue)
}

func TestConfigInit_SkipsConfigLoad(t *testing.T) {
	assert.Equal(t, "true", configInitCmd.Annotations[skipConfig])
	assert.Empty(t, configShowCmd.Annotations[skipConfig])
}
