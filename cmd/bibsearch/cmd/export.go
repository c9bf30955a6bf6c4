package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bibsearch/internal/bibtex"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
	"github.com/Aman-CERP/bibsearch/internal/library"
	"github.com/Aman-CERP/bibsearch/internal/output"
)

type exportOptions struct {
	store  string
	output string
}

func newExportCmd(g *globals) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the library store as BibTeX",
		Example: `  bibsearch export > library.bib
  bibsearch export --store ~/papers/library.db -o papers.bib`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			storePath := opts.store
			if storePath == "" {
				storePath = g.resolve(cfg.Library.StorePath)
			}
			return runExport(cmd.Context(), cmd, storePath, opts.output)
		},
	}

	cmd.Flags().StringVar(&opts.store, "store", "", "Store path (default: library.store_path)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, storePath, outPath string) error {
	if library.DetectKind(storePath) != library.KindStore {
		return biberrors.New(biberrors.ErrCodeInvalidPath,
			fmt.Sprintf("%s is not a library store", storePath), nil).
			WithSuggestion("stores end in .db, .sqlite or .sqlite3")
	}
	lib, err := library.Open(ctx, storePath)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(outPath)
		if err != nil {
			return biberrors.New(biberrors.ErrCodeFilePermission,
				fmt.Sprintf("cannot write %s", outPath), err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := bibtex.Write(w, lib.Database); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if outPath != "" {
		output.New(cmd.ErrOrStderr()).Successf("Exported %d entries to %s", lib.Database.Len(), outPath)
	}
	return nil
}
