package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// lineRotator is a log file that keeps only its most recent lines. Lines are
// appended as usual and the file is compacted to the last maxLines lines
// each time twice that many have been written since the last compaction.
type lineRotator struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxLines int
	// recent holds the last maxLines lines, next is the slot written next.
	recent  []string
	next    int
	filled  bool
	pending int
}

func openRotator(path string, maxLines int) (*lineRotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &lineRotator{
		file:     file,
		path:     path,
		maxLines: max(maxLines, 1),
		recent:   make([]string, max(maxLines, 1)),
	}, nil
}

// Write implements io.Writer.
func (r *lineRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		r.recent[r.next] = line
		r.next = (r.next + 1) % r.maxLines
		if r.next == 0 {
			r.filled = true
		}
		r.pending++

		if r.pending >= 2*r.maxLines {
			if err := r.compact(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}
			r.pending = r.maxLines
		}
	}

	return n, nil
}

// Sync flushes the file.
func (r *lineRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.file.Sync()
}

// Close closes the file.
func (r *lineRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.file.Close()
}

// lines returns the kept lines oldest first.
func (r *lineRotator) lines() []string {
	if !r.filled {
		return append([]string(nil), r.recent[:r.next]...)
	}

	out := make([]string, 0, r.maxLines)
	out = append(out, r.recent[r.next:]...)
	return append(out, r.recent[:r.next]...)
}

// compact replaces the file with the kept lines through a temporary file.
func (r *lineRotator) compact() error {
	temp, err := os.CreateTemp(filepath.Dir(r.path), "temp-log-")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	_, err = temp.WriteString(strings.Join(r.lines(), "\n") + "\n")
	if err == nil {
		err = temp.Sync()
	}
	if closeErr := temp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Join(err, os.Remove(tempPath))
	}

	if err := r.file.Close(); err != nil {
		return errors.Join(err, os.Remove(tempPath))
	}

	if err := os.Rename(tempPath, r.path); err != nil {
		return err
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	r.file = file

	return nil
}
