// Package logs manages the bridge's on-disk log files: listing, reading
// with offsets, age-based cleanup, and live tailing.
package logs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Prefixes of files the bridge owns. Cleanup and listing never touch
// anything else in the directory.
var managedPrefixes = []string{"brpbridge", "brp-watch-"}

// FileInfo describes one managed log file.
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func isManaged(name string) bool {
	for _, prefix := range managedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// List returns the managed log files under dir, newest first. A missing
// directory yields an empty list.
func List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isManaged(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Modified.Equal(files[j].Modified) {
			return files[i].Name < files[j].Name
		}
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// ReadResult is a windowed read of a log file.
type ReadResult struct {
	Lines      []string `json:"lines"`
	TotalLines int      `json:"total_lines"`
	Offset     int      `json:"offset"`
}

// Read returns up to limit lines starting at the zero-based line offset.
// A limit of 0 means no cap.
func Read(path string, offset, limit int) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	res := &ReadResult{Offset: offset}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if res.TotalLines >= offset && (limit == 0 || len(res.Lines) < limit) {
			res.Lines = append(res.Lines, scanner.Text())
		}
		res.TotalLines++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return res, nil
}

// Cleanup deletes managed log files older than maxAge and returns how
// many were removed.
func Cleanup(dir string, maxAge time.Duration) (int, error) {
	files, err := List(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, file := range files {
		if file.Modified.After(cutoff) {
			continue
		}
		if err := os.Remove(file.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", file.Name, err)
		}
		removed++
	}
	return removed, nil
}
