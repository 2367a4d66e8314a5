package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SetupLogFile opens a fresh timestamped log file under dir and prunes older
// ones so at most maxFiles remain. The caller owns the returned handle.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("revisor-%s.log", time.Now().Format("2006-01-02T15-04-05"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// Pruning failures are not fatal; the new file is already open.
	if err := pruneLogs(dir, maxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not prune old logs: %v\n", err)
	}

	return f, nil
}

// pruneLogs deletes the oldest log files once the directory holds more than
// keep of them. The timestamp in the filename sorts chronologically.
func pruneLogs(dir string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, "revisor-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-keep] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove %s: %w", old, err)
		}
	}
	return nil
}
