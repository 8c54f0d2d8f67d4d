package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"logpipe-go/internal/buffer"
	"logpipe-go/internal/sink/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

// failingSink fails every append but keeps count of attempts.
type failingSink struct {
	mu       sync.Mutex
	attempts int
}

func (f *failingSink) Append(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	return errors.New("disk unavailable")
}

func (f *failingSink) Flush() error { return nil }
func (f *failingSink) Close() error { return nil }

func (f *failingSink) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func TestConsumer_DrainsBufferInOrder(t *testing.T) {
	buf, err := buffer.New[string](16)
	if err != nil {
		t.Fatalf("buffer.New error: %v", err)
	}

	records := make([]string, 10)
	for i := range records {
		records[i] = fmt.Sprintf("record-%02d", i)
		if !buf.Push(records[i]) {
			t.Fatalf("Push(%q) rejected", records[i])
		}
	}

	sink := memory.New()
	c := New(1, buf, sink, time.Millisecond, testLogger())
	c.Start()

	waitFor(t, 2*time.Second, func() bool { return sink.Len() == len(records) })

	buf.Shutdown()
	c.Stop()

	got := sink.Records()
	for i, want := range records {
		if got[i] != want {
			t.Errorf("sink record %d = %q, want %q", i, got[i], want)
		}
	}
	if c.Consumed() != uint64(len(records)) {
		t.Errorf("Consumed() = %d, want %d", c.Consumed(), len(records))
	}
}

func TestConsumer_DrainsAfterShutdown(t *testing.T) {
	buf, err := buffer.New[string](8)
	if err != nil {
		t.Fatalf("buffer.New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		buf.Push(fmt.Sprintf("buffered-%d", i))
	}
	// Shutdown before the consumer ever starts: buffered records must
	// still be delivered.
	buf.Shutdown()

	sink := memory.New()
	c := New(2, buf, sink, time.Millisecond, testLogger())
	c.Start()

	waitFor(t, 2*time.Second, func() bool { return sink.Len() == 5 })

	if !c.Running() {
		t.Error("consumer should stay running after drain until Stop")
	}

	c.Stop()
	if c.Running() {
		t.Error("Running() = true after Stop")
	}
	if !buf.Empty() {
		t.Error("buffer should be empty after drain")
	}
}

func TestConsumer_SinkFailureDoesNotStopUnit(t *testing.T) {
	buf, err := buffer.New[string](8)
	if err != nil {
		t.Fatalf("buffer.New error: %v", err)
	}

	for i := 0; i < 3; i++ {
		buf.Push(fmt.Sprintf("doomed-%d", i))
	}
	buf.Shutdown()

	sink := &failingSink{}
	c := New(3, buf, sink, time.Millisecond, testLogger())
	c.Start()

	waitFor(t, 2*time.Second, func() bool { return sink.Attempts() == 3 })

	if !c.Running() {
		t.Error("consumer died on sink failure; failures must stay contained")
	}

	c.Stop()
	if c.Consumed() != 0 {
		t.Errorf("Consumed() = %d with an always-failing sink, want 0", c.Consumed())
	}
}

func TestConsumer_LifecycleReentrant(t *testing.T) {
	buf, err := buffer.New[string](4)
	if err != nil {
		t.Fatalf("buffer.New error: %v", err)
	}
	buf.Shutdown()

	sink := memory.New()
	c := New(4, buf, sink, time.Millisecond, testLogger())

	c.Stop() // stop while idle: no-op

	c.Start()
	c.Start() // start while running: no-op
	if !c.Running() {
		t.Fatal("Running() = false after Start")
	}

	c.Stop()
	c.Stop() // stop while stopped: no-op
	if c.Running() {
		t.Error("Running() = true after Stop")
	}

	// Restart after a full stop.
	c.Start()
	if !c.Running() {
		t.Error("Running() = false after restart")
	}
	c.Stop()
}

func TestConsumer_SharedSinkMultipleUnits(t *testing.T) {
	buf, err := buffer.New[string](8)
	if err != nil {
		t.Fatalf("buffer.New error: %v", err)
	}

	const total = 200
	go func() {
		for i := 0; i < total; i++ {
			buf.Push(fmt.Sprintf("rec-%03d", i))
		}
		buf.Shutdown()
	}()

	sink := memory.New()
	units := []*Consumer{
		New(10, buf, sink, time.Millisecond, testLogger()),
		New(11, buf, sink, time.Millisecond, testLogger()),
		New(12, buf, sink, time.Millisecond, testLogger()),
	}
	for _, c := range units {
		c.Start()
	}

	waitFor(t, 5*time.Second, func() bool { return sink.Len() == total })

	var consumed uint64
	for _, c := range units {
		c.Stop()
		consumed += c.Consumed()
	}
	if consumed != total {
		t.Errorf("units consumed %d records, want %d", consumed, total)
	}

	seen := make(map[string]int)
	for _, rec := range sink.Records() {
		seen[rec]++
	}
	if len(seen) != total {
		t.Errorf("sink holds %d distinct records, want %d", len(seen), total)
	}
	for rec, n := range seen {
		if n != 1 {
			t.Errorf("record %q delivered %d times, want exactly once", rec, n)
		}
	}
}
