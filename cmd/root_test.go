package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "fetch", "export"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geo-dashboard", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestFetchCommand_Flags(t *testing.T) {
	defaults := map[string]string{
		"page":      "1",
		"page-size": "0",
		"search":    "",
		"sort":      "",
		"desc":      "false",
		"format":    "table",
	}
	for name, def := range defaults {
		flag := fetchCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "fetch should have --%s flag", name)
		assert.Equal(t, def, flag.DefValue, "--%s default", name)
	}
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "export command should have --out flag")
	assert.Equal(t, "records.xlsx", flag.DefValue)
}
