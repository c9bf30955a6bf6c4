package bib

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// KeyField is the field that holds an entry's citation key.
const KeyField = "bibtexkey"

// DefaultType is the type given to entries created without one.
const DefaultType = "misc"

// Entry is a single bibliographic record.
// The zero value is not usable; create entries with NewEntry.
type Entry struct {
	id     string
	typ    string
	fields map[string]string
}

// NewEntry creates an empty entry of DefaultType with a fresh ID.
func NewEntry() *Entry {
	return NewEntryWithType(DefaultType)
}

// NewEntryWithType creates an empty entry of the given type with a fresh ID.
func NewEntryWithType(typ string) *Entry {
	e := &Entry{
		id:     uuid.NewString(),
		fields: make(map[string]string),
	}
	e.SetType(typ)
	return e
}

// ID returns the internal identity of the entry. It is not a field.
func (e *Entry) ID() string {
	return e.id
}

// Type returns the lower-cased entry type (article, book, ...).
func (e *Entry) Type() string {
	return e.typ
}

// SetType sets the entry type. An empty type resets it to DefaultType.
func (e *Entry) SetType(typ string) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		typ = DefaultType
	}
	e.typ = typ
}

// Field returns the value of a field and whether it is set.
func (e *Entry) Field(name string) (string, bool) {
	v, ok := e.fields[normalizeName(name)]
	return v, ok
}

// HasField reports whether the field is set.
func (e *Entry) HasField(name string) bool {
	_, ok := e.fields[normalizeName(name)]
	return ok
}

// SetField sets a field. Setting a field to "" removes it.
func (e *Entry) SetField(name, value string) {
	name = normalizeName(name)
	if name == "" {
		return
	}
	if value == "" {
		delete(e.fields, name)
		return
	}
	e.fields[name] = value
}

// ClearField removes a field.
func (e *Entry) ClearField(name string) {
	delete(e.fields, normalizeName(name))
}

// CiteKey returns the citation key, or "" if the entry has none.
func (e *Entry) CiteKey() string {
	return e.fields[KeyField]
}

// SetCiteKey sets the citation key.
func (e *Entry) SetCiteKey(key string) {
	e.SetField(KeyField, strings.TrimSpace(key))
}

// Len returns the number of set fields.
func (e *Entry) Len() int {
	return len(e.fields)
}

// FieldNames returns the set field names in sorted order.
func (e *Entry) FieldNames() []string {
	return slices.Sorted(maps.Keys(e.fields))
}

// Fields yields (name, value) pairs in sorted name order.
// Unset fields are never yielded.
func (e *Entry) Fields() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range e.FieldNames() {
			if !yield(name, e.fields[name]) {
				return
			}
		}
	}
}

// Values yields the field values in sorted field-name order.
func (e *Entry) Values() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range e.Fields() {
			if !yield(v) {
				return
			}
		}
	}
}

// Clone returns a copy of the entry with a fresh ID.
func (e *Entry) Clone() *Entry {
	c := NewEntryWithType(e.typ)
	maps.Copy(c.fields, e.fields)
	return c
}

// withID replaces the entry's ID. Used when restoring persisted entries.
func (e *Entry) withID(id string) *Entry {
	if id != "" {
		e.id = id
	}
	return e
}

// RestoreEntry rebuilds an entry with a known ID, as read back from a store.
func RestoreEntry(id, typ string, fields map[string]string) *Entry {
	e := NewEntryWithType(typ).withID(id)
	for name, value := range fields {
		e.SetField(name, value)
	}
	return e
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
