package logs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"brpbridge/internal/logging"
)

// Tail follows a log file and calls onLine for each complete new line,
// starting from the current end of file. It returns when ctx is canceled
// or the file is removed.
func Tail(ctx context.Context, path string, onLine func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file for tailing: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: some editors and loggers replace files, and
	// watching the parent survives that.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch log directory: %w", err)
	}

	log := logging.Get(logging.CategoryLogs)
	log.Debugw("tailing log file", "path", path)

	reader := bufio.NewReader(f)
	drain := func() {
		for {
			line, err := reader.ReadString('\n')
			if len(line) > 0 && err == nil {
				onLine(trimNewline(line))
			}
			if err != nil {
				// Partial line: rewind so it is re-read whole after the
				// next write.
				if len(line) > 0 {
					if _, serr := f.Seek(-int64(len(line)), io.SeekCurrent); serr == nil {
						reader.Reset(f)
					}
				}
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				log.Debugw("tailed file removed", "path", path)
				return nil
			}
			if event.Has(fsnotify.Write) {
				drain()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher failed: %w", err)
		}
	}
}

func trimNewline(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
