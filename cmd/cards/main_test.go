package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenx-cards/core/internal/app"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/database"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const notes = "REST is an architectural style for distributed systems.\n\n" +
	"An API lets programs talk to each other.\n\n" +
	"HTTP is the protocol most web APIs use."

func newServer(t *testing.T) string {
	t.Helper()
	cfg, err := config.Parse([]byte("env: production\nai:\n  provider: mock\nrate_limit:\n  generate_per_minute: 0\n"))
	require.NoError(t, err)
	db, err := database.Open("sqlite", ":memory:", logger.Silent)
	require.NoError(t, err)
	a, err := app.New(zap.NewNop(), cfg, app.WithDB(db))
	require.NoError(t, err)

	srv := httptest.NewServer(a.Router())
	t.Cleanup(func() {
		srv.Close()
		a.Shutdown()
	})
	return srv.URL
}

func writeNotes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(notes), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerate_SaveWithDrop(t *testing.T) {
	server := newServer(t)

	out, err := run(t, "", "--server", server, "generate", writeNotes(t), "--name", "Web", "--drop", "1,2", "--flag", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "proposals from openai/gpt-4o")
	assert.Contains(t, out, `Saved set "Web"`)

	out, err = run(t, "", "--server", server, "sets", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Web")
	assert.Contains(t, out, "1 sets")
}

func TestGenerate_FromStdinWithoutName(t *testing.T) {
	server := newServer(t)
	out, err := run(t, notes, "--server", server, "generate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Not saved")
}

func TestGenerate_EmptyTextFails(t *testing.T) {
	server := newServer(t)
	_, err := run(t, "   ", "--server", server, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid input")
}

func TestGenerate_DropOutOfRange(t *testing.T) {
	server := newServer(t)
	_, err := run(t, "", "--server", server, "generate", writeNotes(t), "--name", "X", "--drop", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestGenerate_InteractiveConflictThenRename(t *testing.T) {
	server := newServer(t)
	_, err := run(t, "", "--server", server, "generate", writeNotes(t), "--name", "Taken")
	require.NoError(t, err)

	script := strings.Join([]string{
		"f 1",
		"e 2",
		"What does REST stand for?",
		"Representational State Transfer.",
		"d 3",
		"n Taken",
		"s",
		"n Fresh",
		"r",
	}, "\n") + "\n"
	out, err := run(t, script, "--server", server, "generate", "-i", writeNotes(t))
	require.NoError(t, err, out)
	assert.Contains(t, out, "A set with this name already exists.")
	assert.Contains(t, out, `Saved set "Fresh"`)
}

func TestGenerate_InteractiveNeedsFile(t *testing.T) {
	_, err := run(t, notes, "generate", "-i")
	assert.Error(t, err)
}

func TestSetsDelete(t *testing.T) {
	server := newServer(t)
	_, err := run(t, "", "--server", server, "sets", "delete", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
