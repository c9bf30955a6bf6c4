package output

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/Aman-CERP/bibsearch/internal/bib"
)

// EntryJSON is the JSON shape of a matched entry.
type EntryJSON struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Key    string            `json:"key,omitempty"`
	Fields map[string]string `json:"fields"`
}

// SearchResultJSON is the JSON document printed by `search --format json`.
type SearchResultJSON struct {
	Query         string      `json:"query"`
	CaseSensitive bool        `json:"case_sensitive"`
	Regex         bool        `json:"regex"`
	Valid         bool        `json:"valid"`
	Error         string      `json:"error,omitempty"`
	Total         int         `json:"total"`
	Matches       []EntryJSON `json:"matches"`
}

// ToEntryJSON converts e. The citation key is reported as Key only.
func ToEntryJSON(e *bib.Entry) EntryJSON {
	fields := maps.Collect(e.Fields())
	delete(fields, bib.KeyField)
	return EntryJSON{
		ID:     e.ID(),
		Type:   e.Type(),
		Key:    e.CiteKey(),
		Fields: fields,
	}
}

// Entry prints e as a header line followed by its fields.
//
//	Harrer2016 @article
//	  author: harrer
func (w *Writer) Entry(e *bib.Entry) {
	key := e.CiteKey()
	if key == "" {
		key = "(no key)"
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n",
		w.styles.Key.Render(key), w.styles.Type.Render("@"+e.Type()))

	for _, name := range e.FieldNames() {
		if name == bib.KeyField {
			continue
		}
		value, _ := e.Field(name)
		_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.styles.Field.Render(name+":"), value)
	}
}

// Entries prints entries separated by blank lines.
func (w *Writer) Entries(entries []*bib.Entry) {
	for i, e := range entries {
		if i > 0 {
			w.Newline()
		}
		w.Entry(e)
	}
}

// Summary prints how many entries were shown out of how many matched.
func (w *Writer) Summary(shown, matched, total int) {
	msg := fmt.Sprintf("%d of %d entries matched", matched, total)
	if shown < matched {
		msg += fmt.Sprintf(" (showing %d)", shown)
	}
	_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render(msg))
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
