package bibtex

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

// DefaultParseWorkers bounds how many files ParseFiles reads at once.
const DefaultParseWorkers = 4

// ParseFile parses a single .bib file.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, biberrors.New(biberrors.ErrCodeFileNotFound,
				fmt.Sprintf("library file not found: %s", path), err).
				WithSuggestion("check the --library path or library.path in .bibsearch.yaml")
		}
		if os.IsPermission(err) {
			return nil, biberrors.New(biberrors.ErrCodeFilePermission,
				fmt.Sprintf("cannot read %s", path), err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	res, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("bibtex_parsed",
		slog.String("path", path),
		slog.Int("entries", res.Database.Len()),
		slog.Int("duplicate_keys", len(res.DuplicateKeys)))
	return res, nil
}

// ParseFiles parses the files concurrently. Results are returned in the
// order of paths. The first failure cancels the remaining work.
func ParseFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultParseWorkers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ParseFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
