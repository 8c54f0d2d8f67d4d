// Package memory provides an in-memory sink for tests and development.
package memory

import (
	"context"
	"sync"

	"logpipe-go/internal/sink"
)

// Sink stores appended records in order, in memory.
type Sink struct {
	mu      sync.Mutex
	records []string
	closed  bool
}

// New creates an empty in-memory sink.
func New() *Sink {
	return &Sink{}
}

// Append stores one record.
func (s *Sink) Append(_ context.Context, record string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return sink.ErrClosed
	}
	s.records = append(s.records, record)
	return nil
}

// Flush is a no-op; records are already in memory.
func (s *Sink) Flush() error {
	return nil
}

// Close marks the sink closed. Idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the stored records in append order.
func (s *Sink) Records() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	copy(out, s.records)
	return out
}
