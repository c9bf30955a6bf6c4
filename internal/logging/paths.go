package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.bibsearch/logs/).
// Falls back to the temp directory if home is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".bibsearch", "logs")
	}
	return filepath.Join(home, ".bibsearch", "logs")
}

// DefaultLogPath returns the default log file.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "bibsearch.log")
}

// FindLogFile returns explicit if it exists, else the default log file if
// it exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found, run a command with --debug first.\nExpected at: %s", path)
}
