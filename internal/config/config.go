// Package config loads bibsearch configuration from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

const (
	// ProjectConfigName is the project-level config file.
	ProjectConfigName = ".bibsearch.yaml"
	// projectConfigAltName is accepted when ProjectConfigName is absent.
	projectConfigAltName = ".bibsearch.yml"
)

// Output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatBibTeX = "bibtex"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the complete bibsearch configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Library LibraryConfig `yaml:"library" json:"library"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LibraryConfig locates the library and the import store.
type LibraryConfig struct {
	// Path is the library searched by default (.bib or store).
	Path string `yaml:"path" json:"path"`
	// StorePath is the SQLite store used by import and export.
	StorePath string `yaml:"store_path" json:"store_path"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
	Regex         bool `yaml:"regex" json:"regex"`
	// IncludeType makes the entry type tag matchable.
	IncludeType bool `yaml:"include_type" json:"include_type"`
	// CacheSize is the number of compiled queries kept (watch mode).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// MaxResults limits printed matches. 0 means unlimited.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// OutputConfig configures CLI output.
type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
	Color  string `yaml:"color" json:"color"`
}

// WatchConfig configures `search --watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// File overrides the default log path when set.
	File string `yaml:"file" json:"file"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Library: LibraryConfig{
			Path:      "library.bib",
			StorePath: filepath.Join(".bibsearch", "library.db"),
		},
		Search: SearchConfig{
			CacheSize:  128,
			MaxResults: 0,
		},
		Output: OutputConfig{
			Format: FormatText,
			Color:  ColorAuto,
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/bibsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/bibsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bibsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "bibsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "bibsearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project in dir.
// Sources in order of increasing precedence:
//  1. Defaults
//  2. User config (~/.config/bibsearch/config.yaml)
//  3. Project config (.bibsearch.yaml in dir)
//  4. Environment variables (BIBSEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if
// there is none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigName, projectConfigAltName} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}
	return c.loadYAML(path)
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current value, so an explicit false or 0 in a later file wins.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return biberrors.New(biberrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return biberrors.New(biberrors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err).
			WithSuggestion("fix the YAML or regenerate it with 'bibsearch config init --force'")
	}
	return nil
}

// applyEnvOverrides applies BIBSEARCH_* environment variables.
// Unparsable booleans are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BIBSEARCH_LIBRARY"); v != "" {
		c.Library.Path = v
	}
	if v := os.Getenv("BIBSEARCH_STORE"); v != "" {
		c.Library.StorePath = v
	}
	if v := os.Getenv("BIBSEARCH_CASE_SENSITIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.CaseSensitive = b
		}
	}
	if v := os.Getenv("BIBSEARCH_REGEX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.Regex = b
		}
	}
	if v := os.Getenv("BIBSEARCH_FORMAT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := os.Getenv("BIBSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// FindProjectRoot walks up from startDir looking for a .bibsearch.yaml or
// a .git directory. Returns startDir (absolute) if neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if ProjectConfigPath(currentDir) != "" || dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// ResolvePath makes a relative config path absolute against root.
func ResolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// DebounceDuration parses watch.debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(c.Watch.Debounce)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Search.CacheSize < 0 {
		return invalid("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}
	if c.Search.MaxResults < 0 {
		return invalid("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	switch c.Output.Format {
	case FormatText, FormatJSON, FormatBibTeX:
	default:
		return invalid("output.format must be 'text', 'json' or 'bibtex', got %q", c.Output.Format)
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return invalid("output.color must be 'auto', 'always' or 'never', got %q", c.Output.Color)
	}

	if d, err := c.DebounceDuration(); err != nil || d < 0 {
		return invalid("watch.debounce must be a non-negative duration, got %q", c.Watch.Debounce)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	if c.Library.Path == "" {
		return invalid("library.path must not be empty")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return biberrors.New(biberrors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...), nil)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
