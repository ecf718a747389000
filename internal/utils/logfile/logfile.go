// Package logfile provides an append-only log file that can be rotated while it
// is being written, and pruning of the rotated copies by age.
//
// Rotated copies keep the active file's name with a timestamp inserted before
// the extension, e.g. events.20260102-150405.log next to events.log.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const timestampLayout = "20060102-150405"

// File is an append-only log file safe for concurrent writers
type File struct {
	mu   sync.Mutex
	path string
	perm os.FileMode
	file *os.File
	now  func() time.Time
}

// Open opens path for appending, creating it and its directory when missing
func Open(path string, perm os.FileMode) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f := &File{path: path, perm: perm, now: time.Now}
	if err := f.open(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) open() error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, f.perm)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	f.file = file
	return nil
}

// Path returns the path of the active file
func (f *File) Path() string {
	return f.path
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}
	return f.file.Write(p)
}

// Close closes the active file. Writes after Close fail with os.ErrClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Rotate renames the active file to a timestamped copy and reopens an empty one.
// Empty files are left alone. It returns the copy's path, or "" when nothing
// was rotated.
func (f *File) Rotate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return "", os.ErrClosed
	}

	info, err := f.file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}
	if info.Size() == 0 {
		return "", nil
	}

	if err := f.file.Close(); err != nil {
		return "", fmt.Errorf("failed to close log file: %w", err)
	}
	f.file = nil

	rotated := f.rotatedPath(f.now())
	if err := os.Rename(f.path, rotated); err != nil {
		// keep writing to the old file rather than losing events
		if openErr := f.open(); openErr != nil {
			return "", fmt.Errorf("failed to rename log file: %w; reopen: %v", err, openErr)
		}
		return "", fmt.Errorf("failed to rename log file: %w", err)
	}

	if err := f.open(); err != nil {
		return "", err
	}

	log.Info().
		Str("old_path", f.path).
		Str("new_path", rotated).
		Msg("Rotated log file")

	return rotated, nil
}

func (f *File) rotatedPath(at time.Time) string {
	dir, file := filepath.Split(f.path)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, fmt.Sprintf("%s.%s%s", base, at.Format(timestampLayout), ext))
}

// isRotatedCopy reports whether name is a timestamped copy of the active file
func (f *File) isRotatedCopy(name string) bool {
	file := filepath.Base(f.path)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)

	if !strings.HasPrefix(name, base+".") || !strings.HasSuffix(name, ext) {
		return false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, base+"."), ext)
	_, err := time.Parse(timestampLayout, stamp)
	return err == nil
}

// Prune deletes rotated copies last modified before now minus retention. The
// active file and unrelated files in the directory are never touched.
func (f *File) Prune(retention time.Duration) (int, error) {
	dir := filepath.Dir(f.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	cutoff := f.now().Add(-retention)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !f.isRotatedCopy(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to get file info, skipping")
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to delete expired log file")
			continue
		}
		log.Debug().Str("file", path).Msg("Deleted expired log file")
		deleted++
	}

	return deleted, nil
}
