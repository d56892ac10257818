package todo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ExportFileName names an export after the day it was taken.
func ExportFileName(now time.Time) string {
	return "todos_" + now.Format("2006-01-02") + ".json"
}

// Export writes tasks as an indented JSON array.
func Export(w io.Writer, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	return nil
}

// ExportFile writes the export into dir and returns the file path.
func ExportFile(dir string, tasks []Task, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := Export(f, tasks); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	return path, nil
}
