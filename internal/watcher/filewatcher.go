package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a fixed set of files. It uses fsnotify on the files'
// parent directories and falls back to polling.
type FileWatcher struct {
	files       map[string]struct{}
	dirs        []string
	opts        Options
	fsWatcher   *fsnotify.Watcher
	poller      *poller
	debouncer   *Debouncer
	events      chan []FileEvent
	errors      chan error
	ready       chan struct{}
	readyOnce   sync.Once
	stopCh      chan struct{}
	mu          sync.RWMutex
	stopped     bool
	droppedSets atomic.Uint64
}

// New creates a watcher for paths. Files do not need to exist yet.
func New(paths []string, opts Options) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watcher: no files to watch")
	}
	opts = opts.WithDefaults()

	w := &FileWatcher{
		files:     make(map[string]struct{}, len(paths)),
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		ready:     make(chan struct{}),
		stopCh:    make(chan struct{}),
	}

	seenDir := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve absolute path: %w", err)
		}
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
		} else {
			slog.Warn("fsnotify unavailable, polling instead", slog.String("error", err.Error()))
		}
	}
	if w.fsWatcher == nil {
		w.poller = newPoller(w.Files(), opts.PollInterval)
	}
	return w, nil
}

// Start watches until ctx is cancelled or Stop is called. It blocks.
func (w *FileWatcher) Start(ctx context.Context) error {
	go w.forwardDebounced(ctx)

	if w.fsWatcher != nil {
		for _, dir := range w.dirs {
			if err := w.fsWatcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		w.markReady()
		return w.runFsnotify(ctx)
	}

	w.poller.snapshot()
	w.markReady()
	return w.runPolling(ctx)
}

func (w *FileWatcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

func (w *FileWatcher) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *FileWatcher) runPolling(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			for _, event := range w.poller.detectChanges() {
				w.debouncer.Add(event)
			}
		}
	}
}

// handleFsnotifyEvent keeps events for watched files and maps their op.
func (w *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

func (w *FileWatcher) forwardDebounced(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.emitEvents(batch)
		}
	}
}

func (w *FileWatcher) emitEvents(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedSets.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", count))
	}
}

func (w *FileWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and closes its channels.
// Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	if w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of debounced event batches.
// Closed when the watcher stops.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors.
// Closed when the watcher stops.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// Ready is closed once the watches are in place.
func (w *FileWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Files returns the watched files (absolute paths).
func (w *FileWatcher) Files() []string {
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Mode returns "fsnotify" or "polling".
func (w *FileWatcher) Mode() string {
	if w.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// DroppedBatches returns the number of batches dropped because no one was
// reading Events.
func (w *FileWatcher) DroppedBatches() uint64 {
	return w.droppedSets.Load()
}
