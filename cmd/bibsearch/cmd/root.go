// Package cmd provides the CLI commands for bibsearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bibsearch/internal/config"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
	"github.com/Aman-CERP/bibsearch/internal/logging"
	"github.com/Aman-CERP/bibsearch/internal/output"
	"github.com/Aman-CERP/bibsearch/pkg/version"
)

// globals holds persistent flags and state shared by all subcommands.
type globals struct {
	debug     bool
	configDir string

	cfg     *config.Config
	cfgErr  error
	root    string
	cleanup func()
}

// NewRootCmd creates the root command for the bibsearch CLI.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "bibsearch",
		Short: "Search BibTeX libraries by text or regular expression",
		Long: `bibsearch finds entries in a bibliographic library whose fields
contain a search term.

The term is matched against every field of every entry: as a literal
substring by default, or as a regular expression with --regex. Matching
ignores case unless --case-sensitive is given.

A library is a .bib file or a store built with 'bibsearch import'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("bibsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging to ~/.bibsearch/logs/")
	cmd.PersistentFlags().StringVar(&g.configDir, "config", "", "Directory containing .bibsearch.yaml (default: project root)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return g.setup(cmd)
	}
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		g.teardown()
		return nil
	}

	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newImportCmd(g))
	cmd.AddCommand(newExportCmd(g))
	cmd.AddCommand(newConfigCmd(g))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration and installs the default logger. A config
// error is kept for the subcommand to report so `version` still works.
func (g *globals) setup(cmd *cobra.Command) error {
	root := g.configDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		if root, err = config.FindProjectRoot(cwd); err != nil {
			root = cwd
		}
	}
	g.root = root
	g.cfg, g.cfgErr = config.Load(root)

	logCfg := config.NewConfig().Logging
	if g.cfg != nil {
		logCfg = g.cfg.Logging
	}

	switch {
	case g.debug || logCfg.File != "":
		lc := logging.DefaultConfig()
		lc.Level = logCfg.Level
		if g.debug {
			lc.Level = "debug"
		}
		if logCfg.File != "" {
			lc.FilePath = config.ResolvePath(root, logCfg.File)
		}
		logger, cleanup, err := logging.Setup(lc)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		g.cleanup = cleanup
		slog.SetDefault(logger)
		slog.Debug("logging_enabled",
			slog.String("log_file", lc.FilePath),
			slog.String("version", version.Short()))
	default:
		slog.SetDefault(logging.NewStderrLogger(cmd.ErrOrStderr(), "warn"))
	}
	return nil
}

func (g *globals) teardown() {
	if g.cleanup != nil {
		g.cleanup()
		g.cleanup = nil
	}
}

// config returns the loaded configuration or the load error.
func (g *globals) config() (*config.Config, error) {
	if g.cfgErr != nil {
		return nil, g.cfgErr
	}
	if g.cfg == nil {
		return config.NewConfig(), nil
	}
	return g.cfg, nil
}

// resolve makes a configured path absolute against the project root.
func (g *globals) resolve(path string) string {
	return config.ResolvePath(g.root, path)
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		out := output.New(cmd.ErrOrStderr())
		out.Error(biberrors.FormatForCLI(err))
		slog.Error("command_failed", biberrors.LogAttrs(err)...)
	}
	return err
}
