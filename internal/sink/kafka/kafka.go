// Package kafka provides a Kafka-backed sink. Each record becomes one
// message on the configured topic.
package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"logpipe-go/internal/config"
	"logpipe-go/internal/sink"
)

// Sink implements sink.Sink using a Kafka writer.
type Sink struct {
	writer *kafka.Writer

	mu     sync.Mutex
	closed bool
}

// New creates a Kafka sink for the configured brokers and topic.
func New(cfg *config.KafkaConfig) *Sink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Sink{writer: writer}
}

// Append publishes one record to the topic.
func (s *Sink) Append(ctx context.Context, record string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sink.ErrClosed
	}
	s.mu.Unlock()

	msg := kafka.Message{Value: []byte(record)}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write record to kafka: %w", err)
	}

	return nil
}

// Flush is a no-op; the writer flushes per batch timeout and on Close.
func (s *Sink) Flush() error {
	return nil
}

// Close closes the Kafka writer. Idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}
