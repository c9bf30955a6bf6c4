package search

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bibsearch/internal/bib"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

func entryWith(typ string, fields map[string]string) *bib.Entry {
	e := bib.NewEntryWithType(typ)
	for k, v := range fields {
		e.SetField(k, v)
	}
	return e
}

func TestNewQuery_Accessors(t *testing.T) {
	q := NewQuery("harrer", true, false)

	assert.Equal(t, "harrer", q.Text())
	assert.True(t, q.IsCaseSensitive())
	assert.False(t, q.IsRegex())
	assert.True(t, q.IsValid())
	assert.NoError(t, q.Err())
}

func TestNewQuery_InvalidRegex(t *testing.T) {
	tests := []string{"asdf[", "(unbalanced", `bad\`, "a{2,1}", "*start"}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			// When: compiling a malformed pattern
			q := NewQuery(text, true, true)

			// Then: construction succeeds but the query is invalid
			require.NotNil(t, q)
			assert.False(t, q.IsValid())
			require.Error(t, q.Err())
			assert.Equal(t, biberrors.ErrCodeInvalidQuery, biberrors.GetCode(q.Err()))

			// And: it matches nothing, including its own text
			assert.False(t, q.Matches(text))
			assert.False(t, q.Matches("anything at all"))
		})
	}
}

func TestNewQuery_MalformedPatternIsValidInLiteralMode(t *testing.T) {
	q := NewQuery("asdf[", true, false)

	assert.True(t, q.IsValid())
	assert.True(t, q.Matches("xxasdf[yy"))
	assert.False(t, q.Matches("asdf"))
}

func TestQuery_Matches_CaseSensitivity(t *testing.T) {
	tests := []struct {
		name          string
		caseSensitive bool
		regex         bool
		want          bool
	}{
		{"literal case sensitive", true, false, false},
		{"literal case insensitive", false, false, true},
		{"regex case sensitive", true, true, false},
		{"regex case insensitive", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery("Harrer", tt.caseSensitive, tt.regex)
			assert.Equal(t, tt.want, q.Matches("harrer"))
			assert.True(t, q.Matches("Harrer"))
		})
	}
}

func TestQuery_Matches_LiteralAndRegexAgreeOnPlainTerms(t *testing.T) {
	inputs := []string{"harrer", "Simon Harrer", "harr", "xharrerx", "h a r r e r", ""}

	for _, cs := range []bool{true, false} {
		literal := NewQuery("harrer", cs, false)
		regex := NewQuery("harrer", cs, true)
		for _, in := range inputs {
			assert.Equal(t, literal.Matches(in), regex.Matches(in), "input %q case sensitive %v", in, cs)
		}
	}
}

func TestQuery_Matches_LiteralAndRegexFoldUnicodeAlike(t *testing.T) {
	tests := []struct {
		term  string
		input string
	}{
		{"s", "ſ"},
		{"S", "ſ"},
		{"σ", "ς"},
		{"Σ", "ς"},
		{"k", "\u212a"},
		{"straße", "STRASSE"},
		{"émile", "ÉMILE"},
	}

	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.input, func(t *testing.T) {
			literal := NewQuery(tt.term, false, false)
			regex := NewQuery(tt.term, false, true)

			assert.Equal(t, regex.Matches(tt.input), literal.Matches(tt.input))
		})
	}

	// Folded pairs match in both modes
	assert.True(t, NewQuery("s", false, false).Matches("ſ"))
	assert.True(t, NewQuery("σ", false, false).Matches("ς"))
	assert.False(t, NewQuery("σ", true, false).Matches("ς"))
}

func TestQuery_Matches_LiteralFoldingKeepsMetacharactersLiteral(t *testing.T) {
	q := NewQuery("A.C (x)", false, false)

	assert.True(t, q.Matches("see a.c (X) here"))
	assert.False(t, q.Matches("abc (x)"))
}

func TestQuery_Matches_RegexIsUnanchored(t *testing.T) {
	q := NewQuery("ar+e", true, true)

	assert.True(t, q.Matches("harrer"))
	assert.True(t, q.Matches("the harrer paper"))
	assert.False(t, q.Matches("hre"))

	anchored := NewQuery("^har", true, true)
	assert.True(t, anchored.Matches("harrer"))
	assert.False(t, anchored.Matches("sharrer"))
}

func TestQuery_Matches_LiteralTreatsMetacharactersLiterally(t *testing.T) {
	q := NewQuery("a.c", true, false)

	assert.True(t, q.Matches("xa.cx"))
	assert.False(t, q.Matches("abc"))
}

func TestQuery_Matches_EmptyInputs(t *testing.T) {
	// Empty text never matches a non-empty query
	assert.False(t, NewQuery("a", false, false).Matches(""))
	assert.False(t, NewQuery("a", false, true).Matches(""))
	assert.False(t, NewQuery(".*", false, true).Matches(""))

	// An empty query selects nothing
	for _, regex := range []bool{false, true} {
		q := NewQuery("", false, regex)
		assert.True(t, q.IsValid())
		assert.False(t, q.Matches("anything"))
	}
}

func TestQuery_MatchesEntry(t *testing.T) {
	q := NewQuery("tonho", true, true)

	assert.True(t, q.MatchesEntry(entryWith("article", map[string]string{"author": "tonho"})))
	assert.True(t, q.MatchesEntry(entryWith("article", map[string]string{
		"author": "someone",
		"title":  "on tonho and others",
	})))
	assert.False(t, q.MatchesEntry(entryWith("article", map[string]string{"author": "harrer"})))
	assert.False(t, q.MatchesEntry(bib.NewEntry()))
	assert.False(t, q.MatchesEntry(nil))
}

func TestQuery_MatchesEntry_CiteKeyIsSearched(t *testing.T) {
	e := bib.NewEntryWithType("book")
	e.SetCiteKey("Knuth1984")

	assert.True(t, NewQuery("knuth", false, false).MatchesEntry(e))
}

func TestQuery_MatchesEntry_TypeExcludedByDefault(t *testing.T) {
	// Given: an entry whose type, but no field, contains the term
	e := entryWith("incollection", map[string]string{"author": "tonho"})
	q := NewQuery("incollection", false, false)

	// Then: only the type-aware variant sees it
	assert.False(t, q.MatchesEntry(e))
	assert.True(t, q.MatchesEntryWithType(e))
	assert.True(t, NewQuery("tonho", false, false).MatchesEntryWithType(e))
	assert.False(t, NewQuery("[", false, true).MatchesEntryWithType(e))
	assert.False(t, q.MatchesEntryWithType(nil))
}

func TestQuery_Description(t *testing.T) {
	assert.Equal(t, `entries containing the term "harrer" (case insensitive)`,
		NewQuery("harrer", false, false).Description())
	assert.Equal(t, `entries matching the regular expression "^har" (case sensitive)`,
		NewQuery("^har", true, true).String())

	invalid := NewQuery("asdf[", true, true).Description()
	assert.Contains(t, invalid, `invalid regular expression "asdf["`)
	assert.Contains(t, invalid, "missing closing ]")
}

func TestQuery_ConcurrentUse(t *testing.T) {
	q := NewQuery("har+er", false, true)
	e := entryWith("article", map[string]string{"author": "Harrer"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, q.MatchesEntry(e))
			}
		}()
	}
	wg.Wait()
}
