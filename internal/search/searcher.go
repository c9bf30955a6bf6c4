package search

import (
	"log/slog"

	"github.com/Aman-CERP/bibsearch/internal/bib"
)

// DatabaseSearcher applies a Query to every entry of a database.
// It holds both by reference and computes each result from the database's
// current contents.
type DatabaseSearcher struct {
	query       *Query
	db          *bib.Database
	includeType bool
	logger      *slog.Logger
}

// SearcherOption configures a DatabaseSearcher.
type SearcherOption func(*DatabaseSearcher)

// WithEntryType makes the entry type take part in matching as a
// pseudo-field. Off by default, so only field content is searched.
func WithEntryType(include bool) SearcherOption {
	return func(s *DatabaseSearcher) {
		s.includeType = include
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger *slog.Logger) SearcherOption {
	return func(s *DatabaseSearcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDatabaseSearcher creates a searcher for q over db.
func NewDatabaseSearcher(q *Query, db *bib.Database, opts ...SearcherOption) *DatabaseSearcher {
	s := &DatabaseSearcher{
		query:  q,
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns the searcher's query.
func (s *DatabaseSearcher) Query() *Query {
	return s.query
}

// Matches returns the matching entries in database order.
// The result is never nil; the entries are the database's own.
func (s *DatabaseSearcher) Matches() []*bib.Entry {
	matches := []*bib.Entry{}
	if s.query == nil || s.db == nil {
		return matches
	}

	if !s.query.IsValid() {
		s.logger.Debug("search_skipped_invalid_query",
			slog.String("query", s.query.Text()))
		return matches
	}

	scanned := 0
	for e := range s.db.All() {
		scanned++
		if s.matchesEntry(e) {
			matches = append(matches, e)
		}
	}

	s.logger.Debug("search_complete",
		slog.String("query", s.query.Text()),
		slog.Bool("regex", s.query.IsRegex()),
		slog.Bool("case_sensitive", s.query.IsCaseSensitive()),
		slog.Int("scanned", scanned),
		slog.Int("matches", len(matches)))

	return matches
}

// FilteredDatabase returns a new database, of the same kind as the source,
// holding the matches in match order. The source is left untouched and the
// result is never nil.
func (s *DatabaseSearcher) FilteredDatabase() *bib.Database {
	var filtered *bib.Database
	if s.db != nil {
		filtered = s.db.NewEmpty()
	} else {
		filtered = bib.NewDatabase()
	}

	for _, e := range s.Matches() {
		filtered.InsertEntry(e)
	}
	return filtered
}

// Count returns the number of matching entries.
func (s *DatabaseSearcher) Count() int {
	return len(s.Matches())
}

func (s *DatabaseSearcher) matchesEntry(e *bib.Entry) bool {
	if s.includeType {
		return s.query.MatchesEntryWithType(e)
	}
	return s.query.MatchesEntry(e)
}
