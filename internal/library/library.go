// Package library opens a bibliographic library from disk.
//
// A library is either a BibTeX file (.bib) or a SQLite store written by
// `bibsearch import` (.db, .sqlite). Both load into a bib.Database.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aman-CERP/bibsearch/internal/bib"
	"github.com/Aman-CERP/bibsearch/internal/bibtex"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
	"github.com/Aman-CERP/bibsearch/internal/store"
)

// Kind identifies the on-disk format of a library.
type Kind string

const (
	KindBibTeX  Kind = "bibtex"
	KindStore   Kind = "store"
	KindUnknown Kind = "unknown"
)

// Library is a loaded database plus where it came from.
type Library struct {
	Path     string
	Kind     Kind
	Database *bib.Database

	// DuplicateKeys lists citation keys seen more than once while parsing
	// a .bib file. Always empty for stores.
	DuplicateKeys []string
}

// DetectKind maps a file extension to a library kind.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bib", ".bibtex":
		return KindBibTeX
	case ".db", ".sqlite", ".sqlite3":
		return KindStore
	default:
		return KindUnknown
	}
}

// Open loads the library at path.
func Open(ctx context.Context, path string) (*Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	kind := DetectKind(path)

	var (
		lib *Library
		err error
	)
	switch kind {
	case KindBibTeX:
		lib, err = openBibTeX(path)
	case KindStore:
		lib, err = openStore(ctx, path)
	default:
		return nil, biberrors.New(biberrors.ErrCodeInvalidPath,
			fmt.Sprintf("unsupported library file %s", path), nil).
			WithSuggestion("use a .bib file or a store created with 'bibsearch import'")
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("library_loaded",
		slog.String("path", path),
		slog.String("kind", string(kind)),
		slog.Int("entries", lib.Database.Len()),
		slog.Duration("duration", time.Since(start)))
	return lib, nil
}

func openBibTeX(path string) (*Library, error) {
	res, err := bibtex.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return &Library{
		Path:          path,
		Kind:          KindBibTeX,
		Database:      res.Database,
		DuplicateKeys: res.DuplicateKeys,
	}, nil
}

func openStore(ctx context.Context, path string) (*Library, error) {
	// Opening would create an empty store; a missing library is an error.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, biberrors.New(biberrors.ErrCodeFileNotFound,
			fmt.Sprintf("library store %s does not exist", path), err).
			WithSuggestion("create it with 'bibsearch import <file.bib>'")
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	db, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Library{Path: path, Kind: KindStore, Database: db}, nil
}
