// Package bib holds the bibliographic data model searched by bibsearch.
//
// An [Entry] is a typed record with named text fields. A [Database] is an
// ordered collection of entries with two insertion paths:
//
//   - [Database.InsertEntry] appends verbatim, with no identity or key check.
//   - [Database.InsertEntryWithDuplicationCheck] rejects an entry whose ID is
//     already present and reports citation-key reuse.
//
// Field names and entry types are lower-cased on the way in. A field set to
// the empty string is removed, so enumeration never yields empty values.
package bib
