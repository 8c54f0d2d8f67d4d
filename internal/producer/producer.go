// Package producer implements the producer unit: a start/stop lifecycle
// around a worker goroutine that synthesizes log records and pushes them
// into the shared buffer.
package producer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"logpipe-go/internal/buffer"
	"logpipe-go/internal/logrec"
	"logpipe-go/internal/metrics"
	"logpipe-go/internal/payload"
)

// Producer owns one worker goroutine that generates records until it is
// stopped or the buffer closes. It holds a non-owning reference to the
// shared buffer; the orchestrator owns the buffer and outlives the unit.
type Producer struct {
	id     int
	buf    *buffer.Buffer[string]
	gen    *payload.Generator
	logger *slog.Logger

	running  atomic.Bool
	wg       sync.WaitGroup
	produced atomic.Uint64
}

// New creates a producer unit bound to the shared buffer.
func New(id int, buf *buffer.Buffer[string], gen *payload.Generator, logger *slog.Logger) *Producer {
	return &Producer{
		id:     id,
		buf:    buf,
		gen:    gen,
		logger: logger.With("unit", "producer", "id", id),
	}
}

// Start launches the worker goroutine. Starting an already running
// producer is a no-op.
func (p *Producer) Start() {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Warn("start ignored, producer already running")
		return
	}

	p.wg.Add(1)
	go p.run()

	p.logger.Info("producer started")
}

// Stop clears the running flag and waits for the worker to finish.
// Stopping an idle producer is a no-op. If the worker is blocked in a
// Push on a full open buffer, Stop returns only once the buffer frees
// space or is shut down; the orchestrator shuts the buffer down first.
func (p *Producer) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	p.wg.Wait()
	p.logger.Info("producer stopped", "produced", p.produced.Load())
}

// ID returns the unit's numeric identity.
func (p *Producer) ID() int {
	return p.id
}

// Running reports whether the unit is between Start and Stop.
func (p *Producer) Running() bool {
	return p.running.Load()
}

// Produced returns the number of records accepted by the buffer so far.
func (p *Producer) Produced() uint64 {
	return p.produced.Load()
}

// run is the production loop. Any panic is contained here so one failing
// unit never takes down the process or its siblings.
func (p *Producer) run() {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			metrics.ProducerFailuresTotal.WithLabelValues(fmt.Sprintf("%d", p.id)).Inc()
			p.logger.Error("producer loop failed", "reason", r)
		}
	}()

	for p.running.Load() {
		sev := p.gen.Severity()
		msg := p.gen.Message(sev)

		rec, err := logrec.Format(msg, sev, p.id)
		if err != nil {
			metrics.ProducerFailuresTotal.WithLabelValues(fmt.Sprintf("%d", p.id)).Inc()
			p.logger.Error("failed to format record", "error", err)
			continue
		}

		if !p.buf.Push(rec) {
			// Closed buffer: terminal, retrying would spin forever.
			metrics.RecordsRejectedTotal.Inc()
			p.logger.Info("buffer closed, producer loop ending")
			return
		}

		p.produced.Add(1)
		metrics.RecordsProducedTotal.WithLabelValues(string(sev)).Inc()
		metrics.BufferDepth.Set(float64(p.buf.Len()))

		p.logger.Debug("record pushed", "severity", sev)

		// Pacing only; not a correctness mechanism.
		if interval := p.gen.Interval(); interval > 0 {
			time.Sleep(interval)
		}
	}
}
