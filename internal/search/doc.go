// Package search matches free-text and regular-expression queries against
// a bibliographic database.
//
// # Usage
//
//	q := search.NewQuery("harrer", false, false)
//	matches := search.NewDatabaseSearcher(q, db).Matches()
//
// # Matching
//
// A [Query] is a single term. In literal mode the term must occur as a
// contiguous substring of a field value; in regex mode the term is an RE2
// pattern that must match somewhere in a field value. Case-insensitive
// queries fold both sides. An entry matches when at least one of its fields
// matches. The entry type is not a field and is only considered when the
// searcher is built with [WithEntryType].
//
// # Malformed Expressions
//
// A pattern that fails to compile never surfaces as an error from matching.
// The query is marked invalid at construction and matches nothing, so a
// typo in a regular expression yields an empty result set. [Query.IsValid]
// and [Query.Err] tell the two cases apart.
//
// # Thread Safety
//
// Queries are immutable and safe to share. A [DatabaseSearcher] only reads
// its database; concurrent mutation of that database during a search gives
// unspecified (but memory-safe) results.
package search
