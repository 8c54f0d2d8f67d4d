// Package consumer implements the consumer unit: a start/stop lifecycle
// around a worker goroutine that drains records from the shared buffer
// and forwards each one to the sink.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"logpipe-go/internal/buffer"
	"logpipe-go/internal/metrics"
	"logpipe-go/internal/sink"
)

// Consumer owns one worker goroutine that pops records and appends them
// to the sink until it is stopped. The buffer and sink are owned by the
// orchestrator and shared with other units.
type Consumer struct {
	id           int
	buf          *buffer.Buffer[string]
	sink         sink.Sink
	drainBackoff time.Duration
	logger       *slog.Logger

	running  atomic.Bool
	wg       sync.WaitGroup
	consumed atomic.Uint64
}

// New creates a consumer unit bound to the shared buffer and sink.
// drainBackoff is the sleep between polls once the buffer reports
// closed-and-empty; the unit stays formally running until Stop.
func New(id int, buf *buffer.Buffer[string], s sink.Sink, drainBackoff time.Duration, logger *slog.Logger) *Consumer {
	if drainBackoff <= 0 {
		drainBackoff = 10 * time.Millisecond
	}
	return &Consumer{
		id:           id,
		buf:          buf,
		sink:         s,
		drainBackoff: drainBackoff,
		logger:       logger.With("unit", "consumer", "id", id),
	}
}

// Start launches the worker goroutine. Starting an already running
// consumer is a no-op.
func (c *Consumer) Start() {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Warn("start ignored, consumer already running")
		return
	}

	c.wg.Add(1)
	go c.run()

	c.logger.Info("consumer started")
}

// Stop clears the running flag and waits for the worker to finish.
// Stopping an idle consumer is a no-op. If the worker is blocked in a
// Pop on an empty open buffer, Stop returns only once an item arrives
// or the buffer is shut down; the orchestrator shuts the buffer down
// first so remaining records are drained before the unit exits.
func (c *Consumer) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}

	c.wg.Wait()
	c.logger.Info("consumer stopped", "consumed", c.consumed.Load())
}

// ID returns the unit's numeric identity.
func (c *Consumer) ID() int {
	return c.id
}

// Running reports whether the unit is between Start and Stop.
func (c *Consumer) Running() bool {
	return c.running.Load()
}

// Consumed returns the number of records handed to the sink so far.
func (c *Consumer) Consumed() uint64 {
	return c.consumed.Load()
}

// run is the consumption loop. Sink failures are contained per
// iteration; panics are contained at the loop boundary.
func (c *Consumer) run() {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("consumer loop failed", "reason", r)
		}
	}()

	ctx := context.Background()

	for c.running.Load() {
		rec, ok := c.buf.Pop()
		if !ok {
			// Closed and drained. The unit is still governed by its own
			// running flag, so back off and re-check rather than exit.
			time.Sleep(c.drainBackoff)
			continue
		}

		metrics.BufferDepth.Set(float64(c.buf.Len()))

		start := time.Now()
		if err := c.sink.Append(ctx, rec); err != nil {
			metrics.SinkAppendFailuresTotal.WithLabelValues(fmt.Sprintf("%d", c.id)).Inc()
			c.logger.Error("failed to append record to sink", "error", err)
			continue
		}
		metrics.SinkAppendLatency.Observe(time.Since(start).Seconds())

		c.consumed.Add(1)
		metrics.RecordsConsumedTotal.Inc()

		c.logger.Debug("record delivered")
	}
}
