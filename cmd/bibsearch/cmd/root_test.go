package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
	"github.com/Aman-CERP/bibsearch/internal/logging"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"search", "import", "export", "config", "version"} {
		assert.Contains(t, names, want)
	}
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	dir := newProject(t)

	_, _, err := run(t, dir, "frobnicate")

	require.Error(t, err)
}

func TestRootCmd_DebugWritesLogFile(t *testing.T) {
	// Given: a project and an isolated home directory
	dir := newProject(t)

	// When: running a search with --debug
	_, _, err := run(t, dir, "--debug", "search", "harrer")

	// Then: a JSON log file is written under the home directory
	require.NoError(t, err)
	data, err := os.ReadFile(logging.DefaultLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"search_started"`)
}

func TestRootCmd_LogFileFromConfig(t *testing.T) {
	dir := newProject(t)
	logPath := filepath.Join(t.TempDir(), "search.log")
	writeFile(t, filepath.Join(dir, ".bibsearch.yaml"), "logging:\n  level: debug\n  file: "+logPath+"\n")

	_, _, err := run(t, dir, "search", "tonho")

	require.NoError(t, err)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "search_started")
}

func TestRootCmd_ErrorsKeepCode(t *testing.T) {
	dir := newProject(t)

	_, _, err := run(t, dir, "search", "-L", filepath.Join(dir, "nope.bib"), "x")

	var be *biberrors.BibError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, biberrors.ErrCodeFileNotFound, be.Code)
}
