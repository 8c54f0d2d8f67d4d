// Package redis provides a Redis-backed sink. Records are pushed onto a
// single list so RPUSH order preserves delivery order.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"logpipe-go/internal/config"
	"logpipe-go/internal/sink"
)

// Sink implements sink.Sink using a Redis list.
type Sink struct {
	client  *redis.Client
	listKey string

	mu     sync.Mutex
	closed bool
}

// New creates a Redis sink and verifies the connection.
func New(cfg *config.RedisConfig) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Sink{client: client, listKey: cfg.ListKey}, nil
}

// Append pushes one record onto the tail of the list.
func (s *Sink) Append(ctx context.Context, record string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sink.ErrClosed
	}
	s.mu.Unlock()

	if err := s.client.RPush(ctx, s.listKey, record).Err(); err != nil {
		return fmt.Errorf("failed to push record to redis: %w", err)
	}

	return nil
}

// Flush is a no-op; RPUSH is synchronous.
func (s *Sink) Flush() error {
	return nil
}

// Close releases the Redis client. Idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
