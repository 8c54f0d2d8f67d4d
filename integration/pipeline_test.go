package integration

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"logpipe-go/internal/buffer"
	"logpipe-go/internal/consumer"
	"logpipe-go/internal/logrec"
	"logpipe-go/internal/payload"
	"logpipe-go/internal/producer"
	"logpipe-go/internal/sink/memory"
)

var _ = Describe("LogPipe pipeline", func() {
	var (
		logger *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newPipeline := func(capacity, nProducers, nConsumers int) (*buffer.Buffer[string], []*producer.Producer, []*consumer.Consumer, *memory.Sink) {
		buf, err := buffer.New[string](capacity)
		Expect(err).NotTo(HaveOccurred())

		sink := memory.New()

		producers := make([]*producer.Producer, nProducers)
		for i := range producers {
			gen := payload.NewSeededGenerator(time.Millisecond, uint64(i+1), uint64(i+100))
			producers[i] = producer.New(i+1, buf, gen, logger)
		}

		consumers := make([]*consumer.Consumer, nConsumers)
		for i := range consumers {
			consumers[i] = consumer.New(i+1, buf, sink, time.Millisecond, logger)
		}

		return buf, producers, consumers, sink
	}

	It("delivers every accepted record to the sink exactly once", func() {
		buf, producers, consumers, sink := newPipeline(8, 3, 2)

		for _, p := range producers {
			p.Start()
		}
		for _, c := range consumers {
			c.Start()
		}

		// Let the pipeline run under back-pressure for a while.
		time.Sleep(300 * time.Millisecond)

		buf.Shutdown()
		for _, p := range producers {
			p.Stop()
		}

		// Consumers keep draining until the buffer is empty.
		Eventually(buf.Empty, 5*time.Second, 5*time.Millisecond).Should(BeTrue())

		var produced uint64
		for _, p := range producers {
			produced += p.Produced()
		}
		Expect(produced).To(BeNumerically(">", 0))

		Eventually(func() uint64 {
			var consumed uint64
			for _, c := range consumers {
				consumed += c.Consumed()
			}
			return consumed
		}, 5*time.Second, 5*time.Millisecond).Should(Equal(produced))

		for _, c := range consumers {
			c.Stop()
		}

		Expect(uint64(sink.Len())).To(Equal(produced))
	})

	It("keeps per-producer record order", func() {
		buf, producers, consumers, sink := newPipeline(16, 2, 1)

		for _, p := range producers {
			p.Start()
		}
		for _, c := range consumers {
			c.Start()
		}

		time.Sleep(200 * time.Millisecond)

		buf.Shutdown()
		for _, p := range producers {
			p.Stop()
		}
		Eventually(buf.Empty, 5*time.Second, 5*time.Millisecond).Should(BeTrue())
		for _, c := range consumers {
			c.Stop()
		}

		// Timestamps within one producer must be non-decreasing: a
		// producer pushes sequentially and the buffer is FIFO.
		lastSeen := map[int]string{}
		for _, line := range sink.Records() {
			var rec logrec.Record
			Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
			Expect(rec.Level.IsValid()).To(BeTrue())

			if prev, ok := lastSeen[rec.ProducerID]; ok {
				Expect(rec.Timestamp >= prev).To(BeTrue(),
					"producer %d emitted %q after %q", rec.ProducerID, rec.Timestamp, prev)
			}
			lastSeen[rec.ProducerID] = rec.Timestamp
		}
	})

	It("rejects new pushes after shutdown while preserving buffered records", func() {
		buf, err := buffer.New[string](4)
		Expect(err).NotTo(HaveOccurred())

		Expect(buf.Push("kept-1")).To(BeTrue())
		Expect(buf.Push("kept-2")).To(BeTrue())

		buf.Shutdown()
		Expect(buf.Push("dropped")).To(BeFalse())

		sink := memory.New()
		c := consumer.New(1, buf, sink, time.Millisecond, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		c.Start()

		Eventually(sink.Len, 2*time.Second, 5*time.Millisecond).Should(Equal(2))
		c.Stop()

		Expect(sink.Records()).To(Equal([]string{"kept-1", "kept-2"}))
	})

	It("supports stopping and restarting units", func() {
		buf, producers, consumers, sink := newPipeline(8, 1, 1)
		p, c := producers[0], consumers[0]

		p.Start()
		c.Start()
		Eventually(p.Produced, 2*time.Second, 5*time.Millisecond).Should(BeNumerically(">", 0))

		// A producer can be paused and resumed while the pipeline is
		// open; its running flag is independent of the buffer state.
		p.Stop()
		Expect(p.Running()).To(BeFalse())
		before := p.Produced()

		p.Start()
		Eventually(p.Produced, 2*time.Second, 5*time.Millisecond).Should(BeNumerically(">", before))

		buf.Shutdown()
		p.Stop()
		Eventually(buf.Empty, 5*time.Second, 5*time.Millisecond).Should(BeTrue())
		c.Stop()

		Expect(uint64(sink.Len())).To(Equal(c.Consumed()))
	})
})
