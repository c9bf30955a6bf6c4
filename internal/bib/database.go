package bib

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

// ErrKeyCollision is returned by InsertEntryWithDuplicationCheck when an
// entry with the same ID is already in the database. Match with errors.Is.
var ErrKeyCollision = biberrors.New(biberrors.ErrCodeKeyCollision, "entry ID is already in use", nil)

// Database is an ordered collection of entries.
// It is safe for concurrent use. Enumeration works on a snapshot of the
// entry list taken when it starts.
type Database struct {
	mu      sync.RWMutex
	entries []*Entry
	ids     map[string]int // entry ID -> number of entries carrying it
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{ids: make(map[string]int)}
}

// NewEmpty creates an empty database of the same kind as d.
func (d *Database) NewEmpty() *Database {
	return NewDatabase()
}

// InsertEntry appends an entry without any identity or key check.
// Duplicates are kept verbatim. A nil entry is ignored.
func (d *Database) InsertEntry(e *Entry) {
	if e == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendLocked(e)
}

// InsertEntryWithDuplicationCheck inserts an entry unless an entry with the
// same ID is already present, in which case it returns an error wrapping
// ErrKeyCollision and inserts nothing. On success it reports whether the
// entry's citation key was already used by another entry.
func (d *Database) InsertEntryWithDuplicationCheck(e *Entry) (bool, error) {
	if e == nil {
		return false, biberrors.ValidationError("cannot insert a nil entry", nil)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ids[e.ID()] > 0 {
		return false, fmt.Errorf("insert %s: %w", e.ID(), ErrKeyCollision)
	}

	duplicateKey := false
	if key := e.CiteKey(); key != "" {
		duplicateKey = slices.ContainsFunc(d.entries, func(other *Entry) bool {
			return other.CiteKey() == key
		})
	}

	d.appendLocked(e)
	return duplicateKey, nil
}

func (d *Database) appendLocked(e *Entry) {
	d.entries = append(d.entries, e)
	d.ids[e.ID()]++
}

// RemoveEntry removes the first entry with the given ID.
// Reports whether an entry was removed.
func (d *Database) RemoveEntry(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := slices.IndexFunc(d.entries, func(e *Entry) bool { return e.ID() == id })
	if i < 0 {
		return false
	}
	// Copy rather than shift in place: snapshots handed out by All share
	// the backing array.
	d.entries = slices.Concat(d.entries[:i], d.entries[i+1:])
	if d.ids[id]--; d.ids[id] <= 0 {
		delete(d.ids, id)
	}
	return true
}

// Len returns the number of entries.
func (d *Database) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Entries returns the entries in insertion order. The slice is a copy; the
// entries are not.
func (d *Database) Entries() []*Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.entries)
}

// All yields the entries in insertion order.
func (d *Database) All() iter.Seq[*Entry] {
	d.mu.RLock()
	snapshot := d.entries[:len(d.entries):len(d.entries)]
	d.mu.RUnlock()

	return func(yield func(*Entry) bool) {
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}

// EntryByID returns the first entry with the given ID.
func (d *Database) EntryByID(id string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries {
		if e.ID() == id {
			return e, true
		}
	}
	return nil, false
}

// EntriesByCiteKey returns all entries carrying the citation key.
func (d *Database) EntriesByCiteKey(key string) []*Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Entry
	for _, e := range d.entries {
		if e.CiteKey() == key {
			out = append(out, e)
		}
	}
	return out
}
