// Package watcher reports changes to a fixed set of files, such as a
// library and its config, with debouncing.
//
// fsnotify watches each file's parent directory, so editors that save by
// writing a temp file and renaming it are still seen. When fsnotify is not
// available (network mounts, some containers) the files are polled.
//
// Usage:
//
//	w, err := watcher.New([]string{"refs.bib"}, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Start(ctx) }()
//	defer w.Stop()
//
//	for batch := range w.Events() {
//	    // reload
//	}
package watcher
