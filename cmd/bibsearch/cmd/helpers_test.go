package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fixtureBib = `@article{proc2016,
  author = {harrer},
  title  = {Process Engines},
}

@incollection{coll2018,
  author = {tonho},
  title  = {Choreographies},
}

@book{book2020,
  editor = {Someone Else},
  title  = {Workflow Patterns},
}
`

// syncBuffer is a bytes.Buffer safe for the watcher goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newProject creates a project directory holding library.bib and isolates
// the test from the user's config, environment and home directory.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		"BIBSEARCH_LIBRARY", "BIBSEARCH_STORE", "BIBSEARCH_CASE_SENSITIVE",
		"BIBSEARCH_REGEX", "BIBSEARCH_FORMAT", "BIBSEARCH_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "library.bib"), fixtureBib)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// run executes the CLI against project dir and returns stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	return runContext(context.Background(), t, dir, &syncBuffer{}, &syncBuffer{}, args...)
}

func runContext(ctx context.Context, t *testing.T, dir string, stdout, stderr *syncBuffer, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetArgs(append([]string{"--config", dir}, args...))
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}

func contains(b *syncBuffer, s string) func() bool {
	return func() bool { return strings.Contains(b.String(), s) }
}
