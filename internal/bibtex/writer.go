package bibtex

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/bibsearch/internal/bib"
)

// Write serialises the database as BibTeX, one entry per block, in
// database order. Fields are written in sorted order; the citation key
// heads the block and is not repeated as a field.
func Write(w io.Writer, db *bib.Database) error {
	bw := bufio.NewWriter(w)
	first := true
	for e := range db.All() {
		if !first {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		first = false
		if err := writeEntry(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Format returns the BibTeX text of a single entry.
func Format(e *bib.Entry) string {
	var sb strings.Builder
	_ = writeEntry(&sb, e)
	return sb.String()
}

func writeEntry(w io.Writer, e *bib.Entry) error {
	if _, err := fmt.Fprintf(w, "@%s{%s,\n", e.Type(), e.CiteKey()); err != nil {
		return err
	}
	for name, value := range e.Fields() {
		if name == bib.KeyField {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s = {%s},\n", name, escapeValue(value)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

// escapeValue keeps braces balanced so the value survives a round trip.
func escapeValue(v string) string {
	depth := 0
	for _, r := range v {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return strings.NewReplacer("{", `\{`, "}", `\}`).Replace(v)
			}
		}
	}
	if depth != 0 {
		return strings.NewReplacer("{", `\{`, "}", `\}`).Replace(v)
	}
	return v
}
