package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bibsearch/internal/bib"
)

func sampleEntry() *bib.Entry {
	e := bib.NewEntryWithType("article")
	e.SetCiteKey("Harrer2016")
	e.SetField("author", "harrer")
	e.SetField("title", "Process Engines")
	return e
}

func TestWriter_Entry(t *testing.T) {
	// Given: a plain writer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing an entry
	w.Entry(sampleEntry())

	// Then: header then sorted fields, key not repeated as a field
	assert.Equal(t,
		"Harrer2016 @article\n  author: harrer\n  title: Process Engines\n",
		buf.String())
}

func TestWriter_Entry_NoKey(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Entry(bib.NewEntry())

	assert.Equal(t, "(no key) @misc\n", buf.String())
}

func TestWriter_Entries_SeparatedByBlankLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Entries([]*bib.Entry{sampleEntry(), sampleEntry()})

	assert.Contains(t, buf.String(), "Process Engines\n\nHarrer2016")
}

func TestWriter_Summary(t *testing.T) {
	tests := []struct {
		name                  string
		shown, matched, total int
		want                  string
	}{
		{"all shown", 2, 2, 10, "2 of 10 entries matched\n"},
		{"limited", 1, 2, 10, "2 of 10 entries matched (showing 1)\n"},
		{"none", 0, 0, 0, "0 of 0 entries matched\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			New(buf).Summary(tt.shown, tt.matched, tt.total)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_JSON(t *testing.T) {
	// Given: a search result with one match
	buf := &bytes.Buffer{}
	e := sampleEntry()
	result := SearchResultJSON{
		Query:   "harrer",
		Valid:   true,
		Total:   1,
		Matches: []EntryJSON{ToEntryJSON(e)},
	}

	// When: writing it
	require.NoError(t, New(buf).JSON(result))

	// Then: it decodes back with the key split out of the fields
	var decoded SearchResultJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Matches, 1)
	assert.Equal(t, e.ID(), decoded.Matches[0].ID)
	assert.Equal(t, "Harrer2016", decoded.Matches[0].Key)
	assert.Equal(t, map[string]string{"author": "harrer", "title": "Process Engines"}, decoded.Matches[0].Fields)
	assert.NotContains(t, buf.String(), `"error"`)
}
