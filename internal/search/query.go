package search

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Aman-CERP/bibsearch/internal/bib"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

// Query is a compiled, immutable search term.
type Query struct {
	text          string
	caseSensitive bool
	regex         bool
	err           error
	match         func(string) bool
}

// NewQuery compiles text into a query. It never fails: when regex is set
// and text is not a valid pattern, the returned query is invalid and
// matches nothing.
func NewQuery(text string, caseSensitive, regex bool) *Query {
	q := &Query{
		text:          text,
		caseSensitive: caseSensitive,
		regex:         regex,
	}

	switch {
	case regex:
		q.match, q.err = compilePattern(text, caseSensitive)
		if q.err != nil {
			slog.Debug("query_invalid",
				slog.String("query", text),
				slog.String("error", q.err.Error()))
			q.match = matchNothing
		}
	case text == "":
		q.match = matchNothing
	case caseSensitive:
		q.match = func(s string) bool { return strings.Contains(s, text) }
	default:
		q.match = foldedContains(text)
	}

	return q
}

func compilePattern(text string, caseSensitive bool) (func(string) bool, error) {
	if text == "" {
		return matchNothing, nil
	}
	pattern := text
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, biberrors.New(biberrors.ErrCodeInvalidQuery,
			fmt.Sprintf("invalid regular expression %q", text), err).
			WithDetail("query", text).
			WithSuggestion("escape special characters with a backslash, or search without --regex")
	}
	return re.MatchString, nil
}

// foldedContains matches text as a literal with the same simple case
// folding RE2 applies under (?i), so literal and regex mode agree on
// plain terms such as "s" against "ſ".
func foldedContains(text string) func(string) bool {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(text))
	if err != nil {
		// Only invalid UTF-8 in text gets here.
		needle := strings.ToLower(text)
		return func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	}
	return re.MatchString
}

func matchNothing(string) bool { return false }

// Text returns the search term as entered.
func (q *Query) Text() string {
	return q.text
}

// IsCaseSensitive reports whether matching respects case.
func (q *Query) IsCaseSensitive() bool {
	return q.caseSensitive
}

// IsRegex reports whether the term is a regular expression.
func (q *Query) IsRegex() bool {
	return q.regex
}

// IsValid reports whether the query can match anything at all.
// Only a regex query whose pattern failed to compile is invalid.
func (q *Query) IsValid() bool {
	return q.err == nil
}

// Err returns the compile error of an invalid query, or nil.
func (q *Query) Err() error {
	return q.err
}

// Matches reports whether text satisfies the query.
// An empty text never matches.
func (q *Query) Matches(text string) bool {
	if text == "" {
		return false
	}
	return q.match(text)
}

// MatchesEntry reports whether at least one field of e satisfies the query.
// The entry type is not considered.
func (q *Query) MatchesEntry(e *bib.Entry) bool {
	if e == nil || !q.IsValid() {
		return false
	}
	for v := range e.Values() {
		if q.Matches(v) {
			return true
		}
	}
	return false
}

// MatchesEntryWithType is MatchesEntry with the entry type tested as one
// more field.
func (q *Query) MatchesEntryWithType(e *bib.Entry) bool {
	if e == nil || !q.IsValid() {
		return false
	}
	return q.Matches(e.Type()) || q.MatchesEntry(e)
}

// Description returns a human-readable description of the query.
func (q *Query) Description() string {
	if !q.IsValid() {
		return fmt.Sprintf("invalid regular expression %q: %s", q.text, compileCause(q.err))
	}

	sensitivity := "case insensitive"
	if q.caseSensitive {
		sensitivity = "case sensitive"
	}
	if q.regex {
		return fmt.Sprintf("entries matching the regular expression %q (%s)", q.text, sensitivity)
	}
	return fmt.Sprintf("entries containing the term %q (%s)", q.text, sensitivity)
}

// String implements fmt.Stringer.
func (q *Query) String() string {
	return q.Description()
}

// compileCause returns the regexp package's message for a compile error.
func compileCause(err error) string {
	if be, ok := err.(*biberrors.BibError); ok && be.Cause != nil {
		return be.Cause.Error()
	}
	return err.Error()
}
