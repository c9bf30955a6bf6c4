package bibtex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

const sampleBib = `
This line is outside any entry and ignored.

@Comment{jabref-meta: databaseType:bibtex;}

@String{ieee = "IEEE Transactions"}

@Article{Harrer2016,
  Author    = {Simon Harrer and J{\"o}rg Lenhard},
  Title     = "Process {Engines} in Practice",
  Journal   = ieee # " on Software",
  Year      = 2016,
  Month     = jan,
}

@incollection(tonho,
  author = {tonho}
)

@book{empty}
`

func TestParse_Sample(t *testing.T) {
	res, err := ParseString(sampleBib, "sample.bib")
	require.NoError(t, err)

	entries := res.Database.Entries()
	require.Len(t, entries, 3)

	e := entries[0]
	assert.Equal(t, "article", e.Type())
	assert.Equal(t, "Harrer2016", e.CiteKey())
	author, _ := e.Field("author")
	assert.Equal(t, `Simon Harrer and J{\"o}rg Lenhard`, author)
	title, _ := e.Field("title")
	assert.Equal(t, "Process {Engines} in Practice", title)
	journal, _ := e.Field("journal")
	assert.Equal(t, "IEEE Transactions on Software", journal)
	year, _ := e.Field("year")
	assert.Equal(t, "2016", year)
	month, _ := e.Field("month")
	assert.Equal(t, "January", month)

	assert.Equal(t, "incollection", entries[1].Type())
	assert.Equal(t, "tonho", entries[1].CiteKey())

	assert.Equal(t, "book", entries[2].Type())
	assert.Equal(t, []string{"bibtexkey"}, entries[2].FieldNames())
	assert.Empty(t, res.DuplicateKeys)
}

func TestParse_CollapsesWhitespaceAndDropsEmptyFields(t *testing.T) {
	res, err := ParseString("@misc{k, title = {A\n   multi-line\ttitle}, note = {}}", "x.bib")
	require.NoError(t, err)

	e := res.Database.Entries()[0]
	title, _ := e.Field("title")
	assert.Equal(t, "A multi-line title", title)
	assert.False(t, e.HasField("note"))
}

func TestParse_ReportsDuplicateKeys(t *testing.T) {
	res, err := ParseString("@misc{a, title={1}}\n@misc{a, title={2}}\n@misc{b}", "dup.bib")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Database.Len())
	assert.Equal(t, []string{"a"}, res.DuplicateKeys)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unterminated entry", "@article{k, title = {x}", "unterminated entry"},
		{"unterminated value", "@article{k, title = {x", "unterminated value"},
		{"missing equals", "@article{k, title {x}}", `expected '='`},
		{"missing type", "@{k}", "missing entry type"},
		{"missing open", "@article k", "expected '{' or '('"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, "bad.bib")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "bad.bib:1")
			assert.Equal(t, biberrors.ErrCodeParseFailed, biberrors.GetCode(err))
		})
	}
}

func TestParse_ErrorLineNumber(t *testing.T) {
	_, err := ParseString("@misc{a}\n\n@misc{b, title = }", "lines.bib")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lines.bib:3")
}

func TestParse_Empty(t *testing.T) {
	res, err := ParseString("", "empty.bib")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Database.Len())
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.bib"))
	require.Error(t, err)
	assert.Equal(t, biberrors.ErrCodeFileNotFound, biberrors.GetCode(err))
}

func TestParseFiles_PreservesOrder(t *testing.T) {
	// Given: several files with one entry each
	dir := t.TempDir()
	var paths []string
	for _, key := range []string{"a", "b", "c", "d", "e", "f"} {
		path := filepath.Join(dir, key+".bib")
		require.NoError(t, os.WriteFile(path, []byte("@misc{"+key+", title={"+key+"}}"), 0o644))
		paths = append(paths, path)
	}

	// When: parsing them concurrently
	results, err := ParseFiles(context.Background(), paths)

	// Then: results line up with the arguments
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, res := range results {
		assert.Equal(t, paths[i], res.Source)
		assert.Equal(t, filepath.Base(paths[i]), res.Database.Entries()[0].CiteKey()+".bib")
	}
}

func TestParseFiles_FailsOnFirstError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bib")
	require.NoError(t, os.WriteFile(good, []byte("@misc{a}"), 0o644))

	_, err := ParseFiles(context.Background(), []string{good, filepath.Join(dir, "nope.bib")})
	require.Error(t, err)
}

func TestParseFiles_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bib")
	require.NoError(t, os.WriteFile(good, []byte("@misc{a}"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseFiles(ctx, []string{good})
	assert.ErrorIs(t, err, context.Canceled)
}
