package logfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsRotatedCopy(t *testing.T) {
	f := &File{path: filepath.Join("logs", "events.log")}

	tests := []struct {
		name     string
		fileName string
		want     bool
	}{
		{"Active file", "events.log", false},
		{"Rotated copy", "events.20210101-120000.log", true},
		{"Bad timestamp", "events.yesterday.log", false},
		{"Other log", "access.20210101-120000.log", false},
		{"Other extension", "events.20210101-120000.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.isRotatedCopy(tt.fileName); got != tt.want {
				t.Errorf("isRotatedCopy(%q) = %v, want %v", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage", "logs", "events.log")

	f, err := Open(path, 0o640)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
	if f.Path() != path {
		t.Errorf("Path() = %v, want %v", f.Path(), path)
	}
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.log")

	f, err := Open(path, 0o640)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	f.now = func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) }

	// Empty files are not rotated
	rotated, err := f.Rotate()
	if err != nil || rotated != "" {
		t.Fatalf("Rotate() on empty file = %q, %v", rotated, err)
	}

	if _, err := f.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rotated, err = f.Rotate()
	if err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if want := filepath.Join(dir, "events.20260102-150405.log"); rotated != want {
		t.Errorf("Rotate() = %v, want %v", rotated, want)
	}

	content, err := os.ReadFile(rotated)
	if err != nil || string(content) != "first\n" {
		t.Errorf("rotated content = %q, %v", content, err)
	}

	// Writes continue in the reopened active file
	if _, err := f.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write() after rotate error = %v", err)
	}
	content, err = os.ReadFile(path)
	if err != nil || string(content) != "second\n" {
		t.Errorf("active content = %q, %v", content, err)
	}
}

func TestWriteAfterClose(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "events.log"), 0o640)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := f.Write([]byte("late")); err != os.ErrClosed {
		t.Errorf("Write() after Close error = %v, want %v", err, os.ErrClosed)
	}
	if _, err := f.Rotate(); err != os.ErrClosed {
		t.Errorf("Rotate() after Close error = %v, want %v", err, os.ErrClosed)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.log")

	f, err := Open(path, 0o640)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	old := time.Now().Add(-48 * time.Hour)
	files := map[string]time.Time{
		"events.20200101-000000.log": old,
		"events.20200102-000000.log": time.Now(),
		"notes.txt":                  old,
	}
	for name, modTime := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o640); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if err := os.Chtimes(p, modTime, modTime); err != nil {
			t.Fatalf("Chtimes() error = %v", err)
		}
	}
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	deleted, err := f.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d files, want 1", deleted)
	}

	for name, wantExists := range map[string]bool{
		"events.log":                 true,
		"events.20200101-000000.log": false,
		"events.20200102-000000.log": true,
		"notes.txt":                  true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != wantExists {
			t.Errorf("%s exists = %v, want %v", name, exists, wantExists)
		}
	}
}
