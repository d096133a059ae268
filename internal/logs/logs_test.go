package logs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "brpbridge.log", "a\n")
	old := writeFile(t, dir, "brp-watch-123.ndjson", "b\n")
	writeFile(t, dir, "unrelated.txt", "c\n")

	// Make the watch file clearly older.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List = %d files, want 2 (unmanaged excluded)", len(files))
	}
	// Newest first.
	if files[0].Name != "brpbridge.log" || files[1].Name != "brp-watch-123.ndjson" {
		t.Errorf("order = %s, %s", files[0].Name, files[1].Name)
	}
}

func TestListMissingDir(t *testing.T) {
	files, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("List = %+v, want empty", files)
	}
}

func TestReadWindow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "brpbridge.log", "one\ntwo\nthree\nfour\nfive\n")

	res, err := Read(path, 1, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if res.TotalLines != 5 {
		t.Errorf("TotalLines = %d, want 5", res.TotalLines)
	}
	if len(res.Lines) != 2 || res.Lines[0] != "two" || res.Lines[1] != "three" {
		t.Errorf("Lines = %v, want [two three]", res.Lines)
	}

	// Zero limit reads to the end.
	res, err = Read(path, 3, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Lines) != 2 || res.Lines[0] != "four" {
		t.Errorf("Lines = %v, want [four five]", res.Lines)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "gone.log"), 0, 0); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	oldFile := writeFile(t, dir, "brp-watch-old.ndjson", "x\n")
	writeFile(t, dir, "brpbridge.log", "y\n")
	keep := writeFile(t, dir, "unrelated.txt", "z\n")

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(keep, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := Cleanup(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old managed file still present")
	}
	// Unmanaged files are never deleted, however old.
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("unmanaged file was touched: %v", err)
	}
}

func TestTail(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "brpbridge.log", "existing\n")

	lines := make(chan string, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Tail(ctx, path, func(line string) { lines <- line })
	}()

	// Give the watcher a moment to register, then append.
	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("opening for append: %v", err)
	}
	if _, err := f.WriteString("first\nsecond\n"); err != nil {
		t.Fatalf("appending: %v", err)
	}
	f.Close()

	for _, want := range []string{"first", "second"} {
		select {
		case got := <-lines:
			if got != want {
				t.Errorf("line = %q, want %q", got, want)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for tailed lines")
		}
	}

	// Lines before the tail started are not replayed.
	select {
	case extra := <-lines:
		t.Errorf("unexpected extra line %q", extra)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		t.Fatalf("Tail: %v", err)
	}
}

func TestTailStopsOnRemove(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "brpbridge.log", "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Tail(ctx, path, func(string) {})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Tail returned %v, want nil on removal", err)
		}
	case <-ctx.Done():
		t.Fatal("Tail did not stop after file removal")
	}
}
