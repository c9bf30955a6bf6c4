// Package store persists bibliographic databases in SQLite.
//
// A [LibraryStore] keeps one database per file using the pure-Go
// modernc.org/sqlite driver in WAL mode. Entries are stored by position so
// the order and any duplicates of the saved database come back unchanged.
//
// Writers from different processes coordinate through [FileLock].
package store
