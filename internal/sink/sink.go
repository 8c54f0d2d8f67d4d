// Package sink defines the interface for durable record destinations.
// This abstraction allows swapping backends (file, Kafka, Redis,
// PostgreSQL, in-memory) without changing consumer logic.
package sink

import (
	"context"
	"errors"
)

// ErrClosed is returned when appending to a sink that has been closed.
var ErrClosed = errors.New("sink is closed")

// Sink is the destination consumers forward records to.
// Implementations must be safe for concurrent use: appends from
// different consumer units must land as whole, non-interleaved units.
type Sink interface {
	// Append durably stores one record as a single line-delimited unit.
	Append(ctx context.Context, record string) error

	// Flush forces any buffered records to the underlying resource.
	Flush() error

	// Close flushes and releases the underlying resource. Idempotent;
	// appends after Close fail with ErrClosed.
	Close() error
}
