package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/bibsearch/internal/bib"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

// SchemaVersion is the current on-disk schema version.
const SchemaVersion = 1

// LibraryStore saves and loads a bib.Database in a SQLite file.
type LibraryStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// validateIntegrity checks an existing store before opening it.
// Returns nil if the file does not exist yet.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Open opens or creates the store at path.
// If path is empty, the store lives in memory (for tests).
func Open(path string) (*LibraryStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, biberrors.New(biberrors.ErrCodeInvalidPath,
				fmt.Sprintf("failed to create directory %s", dir), err)
		}

		// Unlike a rebuildable index, a library is user data: report
		// corruption instead of clearing the file.
		if err := validateIntegrity(path); err != nil {
			slog.Warn("library_store_corrupted",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil, biberrors.New(biberrors.ErrCodeCorruptStore,
				fmt.Sprintf("library store %s is corrupted", path), err).
				WithSuggestion("restore the file from a backup or re-import the .bib sources")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, biberrors.New(biberrors.ErrCodeStoreFailed, "failed to open library store", err)
	}

	// Single connection: an in-memory database is per-connection, and a
	// single writer avoids lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, biberrors.New(biberrors.ErrCodeStoreFailed, "failed to set pragma", err)
		}
	}

	s := &LibraryStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, biberrors.New(biberrors.ErrCodeStoreFailed, "failed to initialize schema", err)
	}
	return s, nil
}

func (s *LibraryStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- pos keeps database order; id is not unique because the unchecked
	-- insertion path allows the same entry more than once.
	CREATE TABLE IF NOT EXISTS entries (
		pos  INTEGER PRIMARY KEY,
		id   TEXT NOT NULL,
		type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fields (
		pos   INTEGER NOT NULL REFERENCES entries(pos) ON DELETE CASCADE,
		name  TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (pos, name)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_id ON entries(id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion)
	return err
}

// Path returns the store's file path ("" for in-memory stores).
func (s *LibraryStore) Path() string {
	return s.path
}

// Save replaces the stored database with d in a single transaction.
func (s *LibraryStore) Save(ctx context.Context, d *bib.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("library store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fields`); err != nil {
		return fmt.Errorf("failed to clear fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx, `INSERT INTO entries(pos, id, type) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry statement: %w", err)
	}
	defer entryStmt.Close()

	fieldStmt, err := tx.PrepareContext(ctx, `INSERT INTO fields(pos, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare field statement: %w", err)
	}
	defer fieldStmt.Close()

	pos := 0
	for e := range d.All() {
		if _, err := entryStmt.ExecContext(ctx, pos, e.ID(), e.Type()); err != nil {
			return fmt.Errorf("failed to save entry %s: %w", e.ID(), err)
		}
		for name, value := range e.Fields() {
			if _, err := fieldStmt.ExecContext(ctx, pos, name, value); err != nil {
				return fmt.Errorf("failed to save field %s of entry %s: %w", name, e.ID(), err)
			}
		}
		pos++
	}

	if err := tx.Commit(); err != nil {
		return biberrors.New(biberrors.ErrCodeStoreFailed, "failed to commit library", err)
	}

	slog.Debug("store_saved", slog.String("path", s.path), slog.Int("entries", pos))
	return nil
}

// Load reads the stored database. Entries keep their saved order and IDs,
// and are inserted on the unchecked path so duplicates survive.
func (s *LibraryStore) Load(ctx context.Context) (*bib.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("library store is closed")
	}

	fields, err := s.loadFields(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT pos, id, type FROM entries ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	d := bib.NewDatabase()
	for rows.Next() {
		var pos int
		var id, typ string
		if err := rows.Scan(&pos, &id, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		d.InsertEntry(bib.RestoreEntry(id, typ, fields[pos]))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Debug("store_loaded", slog.String("path", s.path), slog.Int("entries", d.Len()))
	return d, nil
}

// loadFields returns the stored fields grouped by entry position.
func (s *LibraryStore) loadFields(ctx context.Context) (map[int]map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pos, name, value FROM fields`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[int]map[string]string)
	for rows.Next() {
		var pos int
		var name, value string
		if err := rows.Scan(&pos, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if fields[pos] == nil {
			fields[pos] = make(map[string]string)
		}
		fields[pos][name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	return fields, nil
}

// Count returns the number of stored entries.
func (s *LibraryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("library store is closed")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Close closes the store. Forces a WAL checkpoint first. Idempotent.
func (s *LibraryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
