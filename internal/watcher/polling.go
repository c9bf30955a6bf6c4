package watcher

import (
	"os"
	"time"
)

// poller detects changes by comparing file stats between ticks.
type poller struct {
	paths    []string
	interval time.Duration
	state    map[string]fileSnapshot
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

func newPoller(paths []string, interval time.Duration) *poller {
	return &poller{
		paths:    paths,
		interval: interval,
		state:    make(map[string]fileSnapshot, len(paths)),
	}
}

func stat(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// snapshot records the baseline.
func (p *poller) snapshot() {
	for _, path := range p.paths {
		p.state[path] = stat(path)
	}
}

// detectChanges compares current stats with the last ones and returns
// an event per changed file.
func (p *poller) detectChanges() []FileEvent {
	var events []FileEvent
	now := time.Now()

	for _, path := range p.paths {
		prev := p.state[path]
		cur := stat(path)
		p.state[path] = cur

		var op Operation
		switch {
		case !prev.exists && cur.exists:
			op = OpCreate
		case prev.exists && !cur.exists:
			op = OpDelete
		case cur.exists && (prev.modTime != cur.modTime || prev.size != cur.size):
			op = OpModify
		default:
			continue
		}
		events = append(events, FileEvent{Path: path, Operation: op, Timestamp: now})
	}
	return events
}
