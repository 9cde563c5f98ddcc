package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelWarn,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNew_ConsoleIsJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Console: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Debug("hidden")
	l.Info("shown", "repo", "repo-1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, "repo-1", rec["repo"])
}

func TestNew_FileReceivesDebug(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "dgit.log")

	l, err := New(Options{Level: "error", File: path, Console: &buf})
	require.NoError(t, err)
	l.With("command", "commit").Debug("file only")
	require.NoError(t, l.Close())

	require.Empty(t, buf.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "file only")
	require.Contains(t, string(data), "command=commit")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	require.NoError(t, l.Close())
}
