package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const logFilePrefix = "study-api"

// SetupLogFile opens a fresh timestamped log file under dir and prunes the
// directory down to the keep most recent files. The caller closes the file.
func SetupLogFile(dir string, keep int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", logFilePrefix, time.Now().UTC().Format("20060102T150405.000"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// Pruning failures are reported but never block startup.
	if err := pruneLogs(dir, keep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: prune logs: %v\n", err)
	}

	return f, nil
}

func pruneLogs(dir string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, logFilePrefix+"-*.log"))
	if err != nil {
		return err
	}
	if keep < 1 || len(files) <= keep {
		return nil
	}

	// UTC timestamps in the name sort chronologically
	sort.Strings(files)

	var firstErr error
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", filepath.Base(f), err)
		}
	}
	return firstErr
}
