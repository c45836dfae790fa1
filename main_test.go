package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"cachebak/pkg/core"

	"github.com/stretchr/testify/require"
)

// TestVerboseOnEverySubcommand tests that -v is accepted by all subcommands
func TestVerboseOnEverySubcommand(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "empty.zip")
	_, err := core.Backup(t.TempDir(), archive, core.DefaultSources, core.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	require.NoError(t, handleList([]string{"-v", archive}))
	require.NoError(t, handleList([]string{"--verbose", archive}))

	home := t.TempDir()
	t.Setenv("CARGO_HOME", home)
	require.NoError(t, handleRestore([]string{"-v", archive}))
	require.NoError(t, handleBackup([]string{"-v", "-s", filepath.Join(t.TempDir(), "bak.zip")}))
}

func TestUnexpectedArguments(t *testing.T) {
	require.Error(t, handleList(nil))
	require.Error(t, handleRestore([]string{"a.zip", "b.zip"}))
	require.Error(t, handleBackup([]string{"extra"}))
}
