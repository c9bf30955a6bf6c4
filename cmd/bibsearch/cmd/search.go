package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bibsearch/internal/bib"
	"github.com/Aman-CERP/bibsearch/internal/bibtex"
	"github.com/Aman-CERP/bibsearch/internal/config"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
	"github.com/Aman-CERP/bibsearch/internal/library"
	"github.com/Aman-CERP/bibsearch/internal/output"
	"github.com/Aman-CERP/bibsearch/internal/search"
	"github.com/Aman-CERP/bibsearch/internal/watcher"
)

// searchOptions holds CLI flags for search. Unset flags fall back to config.
type searchOptions struct {
	caseSensitive bool
	regex         bool
	includeType   bool
	library       string
	format        string
	limit         int
	strict        bool
	watch         bool
}

// searchSettings is the effective configuration of one search run.
type searchSettings struct {
	text          string
	caseSensitive bool
	regex         bool
	includeType   bool
	libraryPath   string
	format        string
	limit         int
	strict        bool
	color         string
	cacheSize     int
	debounce      time.Duration
}

func newSearchCmd(g *globals) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Find entries whose fields contain a term",
		Long: `Search the library for entries where any field contains the query.

Words are joined with single spaces into one term. There are no boolean
operators or field prefixes; the term is tested against every field.

An invalid regular expression matches nothing. A warning is printed and
the exit status is 0, unless --strict is given.`,
		Example: `  bibsearch search harrer
  bibsearch search -c Harrer
  bibsearch search -r '^Process\s+Engines$'
  bibsearch search --include-type article
  bibsearch search tonho -L refs.bib --format bibtex
  bibsearch search -r 'micro.?services' --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			settings, err := resolveSearchSettings(cmd, g, cfg, strings.Join(args, " "), opts)
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), cmd, settings, opts.watch)
		},
	}

	cmd.Flags().BoolVarP(&opts.caseSensitive, "case-sensitive", "c", false, "Match case exactly")
	cmd.Flags().BoolVarP(&opts.regex, "regex", "r", false, "Treat the query as a regular expression")
	cmd.Flags().BoolVar(&opts.includeType, "include-type", false, "Also match the entry type")
	cmd.Flags().StringVarP(&opts.library, "library", "L", "", "Library file (.bib, .db or .sqlite)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, json, bibtex")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of entries to print (0 = all)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on an invalid regular expression")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Search again whenever the library changes")

	return cmd
}

func resolveSearchSettings(cmd *cobra.Command, g *globals, cfg *config.Config, text string, opts searchOptions) (searchSettings, error) {
	s := searchSettings{
		text:          text,
		caseSensitive: cfg.Search.CaseSensitive,
		regex:         cfg.Search.Regex,
		includeType:   cfg.Search.IncludeType,
		libraryPath:   g.resolve(cfg.Library.Path),
		format:        cfg.Output.Format,
		limit:         cfg.Search.MaxResults,
		strict:        opts.strict,
		color:         cfg.Output.Color,
		cacheSize:     cfg.Search.CacheSize,
	}

	flags := cmd.Flags()
	if flags.Changed("case-sensitive") {
		s.caseSensitive = opts.caseSensitive
	}
	if flags.Changed("regex") {
		s.regex = opts.regex
	}
	if flags.Changed("include-type") {
		s.includeType = opts.includeType
	}
	if opts.library != "" {
		s.libraryPath = opts.library
	}
	if opts.format != "" {
		s.format = strings.ToLower(opts.format)
	}
	if flags.Changed("limit") {
		s.limit = opts.limit
	}

	switch s.format {
	case config.FormatText, config.FormatJSON, config.FormatBibTeX:
	default:
		return s, biberrors.New(biberrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown output format %q", s.format), nil).
			WithSuggestion("use text, json or bibtex")
	}
	if s.limit < 0 {
		return s, biberrors.New(biberrors.ErrCodeInvalidInput,
			fmt.Sprintf("--limit must be non-negative, got %d", s.limit), nil)
	}

	d, err := cfg.DebounceDuration()
	if err != nil {
		return s, err
	}
	s.debounce = d
	return s, nil
}

func runSearch(ctx context.Context, cmd *cobra.Command, s searchSettings, watch bool) error {
	stdout := cmd.OutOrStdout()
	out := output.NewWithColor(stdout, output.ResolveColor(s.color, stdout))
	errOut := output.NewWithColor(cmd.ErrOrStderr(), output.ResolveColor(s.color, cmd.ErrOrStderr()))

	cache := search.NewQueryCache(s.cacheSize)
	q := cache.Get(s.text, s.caseSensitive, s.regex)
	if !q.IsValid() {
		if s.strict {
			return q.Err()
		}
		errOut.Warningf("%s, no entries will match", q.Description())
	}

	slog.Info("search_started",
		slog.String("query", s.text),
		slog.Bool("case_sensitive", s.caseSensitive),
		slog.Bool("regex", s.regex),
		slog.String("library", s.libraryPath))

	lib, err := library.Open(ctx, s.libraryPath)
	if err != nil {
		if s.format == config.FormatJSON {
			if data, jerr := biberrors.FormatJSON(err); jerr == nil {
				_, _ = fmt.Fprintln(stdout, string(data))
			}
		}
		return err
	}
	warnDuplicates(errOut, lib)

	if err := render(stdout, out, s, q, lib.Database); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAndSearch(ctx, stdout, out, errOut, s, cache)
}

// watchAndSearch reloads the library and searches again after each change
// until ctx is done.
func watchAndSearch(ctx context.Context, stdout io.Writer, out, errOut *output.Writer, s searchSettings, cache *search.QueryCache) error {
	w, err := watcher.New([]string{s.libraryPath}, watcher.Options{DebounceWindow: s.debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			errOut.Warningf("watcher stopped: %v", err)
		}
	}()

	select {
	case <-w.Ready():
	case <-ctx.Done():
		return nil
	}
	if s.format == config.FormatText {
		errOut.Statusf("👀", "Watching %s (%s), press Ctrl+C to stop", s.libraryPath, w.Mode())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			errOut.Warningf("watch error: %v", err)
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			slog.Debug("library_changed", slog.Int("events", len(batch)))

			lib, err := library.Open(ctx, s.libraryPath)
			if err != nil {
				errOut.Warning(biberrors.FormatForCLI(err))
				continue
			}
			if s.format == config.FormatText {
				out.Newline()
				errOut.Statusf("🔄", "%s changed, searching again", s.libraryPath)
			}
			q := cache.Get(s.text, s.caseSensitive, s.regex)
			if err := render(stdout, out, s, q, lib.Database); err != nil {
				return err
			}
		}
	}
}

func warnDuplicates(errOut *output.Writer, lib *library.Library) {
	seen := make(map[string]bool)
	for _, key := range lib.DuplicateKeys {
		if seen[key] {
			continue
		}
		seen[key] = true
		errOut.Warningf("duplicate citation key %q in %s", key, lib.Path)
	}
}

// render prints the result of q over db in the configured format.
func render(stdout io.Writer, out *output.Writer, s searchSettings, q *search.Query, db *bib.Database) error {
	searcher := search.NewDatabaseSearcher(q, db, search.WithEntryType(s.includeType))
	matches := searcher.Matches()
	shown := matches
	if s.limit > 0 && len(shown) > s.limit {
		shown = shown[:s.limit]
	}

	switch s.format {
	case config.FormatJSON:
		result := output.SearchResultJSON{
			Query:         q.Text(),
			CaseSensitive: q.IsCaseSensitive(),
			Regex:         q.IsRegex(),
			Valid:         q.IsValid(),
			Total:         len(matches),
			Matches:       make([]output.EntryJSON, 0, len(shown)),
		}
		if err := q.Err(); err != nil {
			result.Error = err.Error()
		}
		for _, e := range shown {
			result.Matches = append(result.Matches, output.ToEntryJSON(e))
		}
		return out.JSON(result)

	case config.FormatBibTeX:
		filtered := searcher.FilteredDatabase()
		if len(shown) < len(matches) {
			filtered = db.NewEmpty()
			for _, e := range shown {
				filtered.InsertEntry(e)
			}
		}
		return bibtex.Write(stdout, filtered)

	default:
		out.Entries(shown)
		if len(shown) > 0 {
			out.Newline()
		}
		out.Summary(len(shown), len(matches), db.Len())
		return nil
	}
}
