// Package file provides a file-backed sink that appends records as JSON
// Lines. Writes are serialized by an internal mutex and flushed per
// append so every record lands as one durable line.
package file

import (
	"context"
	"fmt"
	"os"
	"sync"

	"logpipe-go/internal/sink"
)

// Sink appends records to a single append-only file.
type Sink struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

// New opens (or creates) the log file at path for appending.
func New(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return &Sink{file: f, path: path}, nil
}

// Append writes one record followed by a newline.
func (s *Sink) Append(_ context.Context, record string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return sink.ErrClosed
	}

	if _, err := s.file.WriteString(record + "\n"); err != nil {
		return fmt.Errorf("failed to append to %s: %w", s.path, err)
	}

	return nil
}

// Flush forces written records to stable storage.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", s.path, err)
	}

	return nil
}

// Close flushes and closes the file. Safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("failed to sync %s on close: %w", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}

	return nil
}

// Path returns the file path this sink writes to.
func (s *Sink) Path() string {
	return s.path
}
