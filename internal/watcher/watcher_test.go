package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(99).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{DebounceWindow: 10 * time.Millisecond}.WithDefaults()

	assert.Equal(t, 10*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 2*time.Second, opts.PollInterval)
	assert.Equal(t, 16, opts.EventBufferSize)
}

func TestNew_NoFiles(t *testing.T) {
	_, err := New(nil, DefaultOptions())
	assert.Error(t, err)
}

// startWatcher runs w in the background and waits until it is watching.
func startWatcher(t *testing.T, w *FileWatcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Start(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("watcher did not become ready")
	}
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return cancel
}

func waitForBatch(t *testing.T, w *FileWatcher, path string) []FileEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events channel closed")
			for _, e := range batch {
				if e.Path == path {
					return batch
				}
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
			return nil
		}
	}
}

func TestFileWatcher_DetectsWrite(t *testing.T) {
	for _, polling := range []bool{false, true} {
		name := "fsnotify"
		if polling {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			// Given: a watched library file
			dir := t.TempDir()
			lib := filepath.Join(dir, "refs.bib")
			require.NoError(t, os.WriteFile(lib, []byte("@misc{a,}\n"), 0o644))

			w, err := New([]string{lib}, Options{
				DebounceWindow: 20 * time.Millisecond,
				PollInterval:   20 * time.Millisecond,
				ForcePolling:   polling,
			})
			require.NoError(t, err)
			if polling {
				assert.Equal(t, "polling", w.Mode())
			}
			startWatcher(t, w)

			// When: the file is rewritten with different content
			time.Sleep(20 * time.Millisecond)
			require.NoError(t, os.WriteFile(lib, []byte("@misc{a,}\n@misc{b,}\n"), 0o644))

			// Then: a batch names the file
			batch := waitForBatch(t, w, lib)
			assert.NotEmpty(t, batch)
		})
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	// Given: a watched file and an unrelated sibling
	dir := t.TempDir()
	lib := filepath.Join(dir, "refs.bib")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(lib, []byte("x"), 0o644))

	w, err := New([]string{lib}, Options{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, err)
	startWatcher(t, w)

	// When: only the sibling changes
	require.NoError(t, os.WriteFile(other, []byte("y"), 0o644))

	// Then: nothing is reported
	select {
	case batch := <-w.Events():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcher_ContextCancelStops(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "refs.bib")
	w, err := New([]string{lib}, DefaultOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	<-w.Ready()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	_, ok := <-w.Events()
	assert.False(t, ok, "events channel should be closed")
	assert.NoError(t, w.Stop())
}

func TestFileWatcher_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bib")
	b := filepath.Join(dir, ".bibsearch.yaml")

	w, err := New([]string{a, b, a}, DefaultOptions())
	require.NoError(t, err)
	defer w.Stop()

	assert.ElementsMatch(t, []string{a, b}, w.Files())
}

func TestPoller_DetectChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	p := newPoller([]string{path}, time.Second)
	p.snapshot()

	assert.Empty(t, p.detectChanges())

	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	events := p.detectChanges()
	require.Len(t, events, 1)
	assert.Equal(t, OpCreate, events[0].Operation)

	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))
	events = p.detectChanges()
	require.Len(t, events, 1)
	assert.Equal(t, OpModify, events[0].Operation)

	require.NoError(t, os.Remove(path))
	events = p.detectChanges()
	require.Len(t, events, 1)
	assert.Equal(t, OpDelete, events[0].Operation)
}
