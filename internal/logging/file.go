package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// OpenLogFile opens today's log file under dir, creating the directory if
// needed. An empty dir means ~/.<appName>/logs. The returned writer tees to
// stderr and the file; the caller must close the file.
func OpenLogFile(appName, dir string) (io.Writer, *os.File, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, "."+appName, "logs")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", appName, time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return io.MultiWriter(os.Stderr, f), f, nil
}
