package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bibsearch/internal/bibtex"
	"github.com/Aman-CERP/bibsearch/internal/output"
	"github.com/Aman-CERP/bibsearch/internal/store"
)

type importOptions struct {
	store   string
	replace bool
}

func newImportCmd(g *globals) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.bib...>",
		Short: "Add BibTeX files to the library store",
		Long: `Parse BibTeX files and append their entries to the SQLite store.

Files are parsed concurrently and appended in the order given. Entries
whose citation key is already present are kept and reported as warnings.
The store is locked while it is written so concurrent imports are
serialised.`,
		Example: `  bibsearch import refs.bib
  bibsearch import *.bib --store ~/papers/library.db
  bibsearch import refs.bib --replace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			storePath := opts.store
			if storePath == "" {
				storePath = g.resolve(cfg.Library.StorePath)
			}
			return runImport(cmd.Context(), cmd, storePath, args, opts.replace)
		},
	}

	cmd.Flags().StringVar(&opts.store, "store", "", "Store path (default: library.store_path)")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Replace the store contents instead of appending")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, storePath string, files []string, replace bool) error {
	stdout := cmd.OutOrStdout()
	out := output.New(stdout)
	errOut := output.New(cmd.ErrOrStderr())

	// Parse before taking the lock: a bad file should not block other writers.
	results, err := bibtex.ParseFiles(ctx, files)
	if err != nil {
		return err
	}

	lock := store.NewFileLock(storePath)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	s, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	db, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if replace {
		db = db.NewEmpty()
	}

	imported := 0
	duplicates := make(map[string]bool)
	showProgress := output.IsTTY(stdout)
	for i, res := range results {
		for e := range res.Database.All() {
			dup, err := db.InsertEntryWithDuplicationCheck(e)
			if err != nil {
				return fmt.Errorf("import %s: %w", res.Source, err)
			}
			if dup && !duplicates[e.CiteKey()] {
				duplicates[e.CiteKey()] = true
				errOut.Warningf("duplicate citation key %q (from %s)", e.CiteKey(), res.Source)
			}
			imported++
		}
		if showProgress {
			out.Progress(i+1, len(results), filepath.Base(res.Source))
		}
	}

	if err := s.Save(ctx, db); err != nil {
		return err
	}

	slog.Info("import_complete",
		slog.String("store", storePath),
		slog.Int("files", len(files)),
		slog.Int("imported", imported),
		slog.Int("duplicate_keys", len(duplicates)),
		slog.Int("total", db.Len()))

	out.Successf("Imported %d entries from %d file(s)", imported, len(files))
	out.Statusf("📚", "%s now holds %d entries", storePath, db.Len())
	return nil
}
