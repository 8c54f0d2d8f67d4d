// Package main is the entry point for the LogPipe log pipeline.
// It wires N producer units and M consumer units to one bounded buffer
// and a configured sink, runs until a signal or the configured duration,
// then drives the coordinated shutdown: close the buffer, stop the
// producers, let the consumers drain, stop them, and flush the sink.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"logpipe-go/internal/api"
	"logpipe-go/internal/banner"
	"logpipe-go/internal/buffer"
	"logpipe-go/internal/config"
	"logpipe-go/internal/consumer"
	"logpipe-go/internal/metrics"
	"logpipe-go/internal/payload"
	"logpipe-go/internal/producer"
	"logpipe-go/internal/sink"
	filesink "logpipe-go/internal/sink/file"
	kafkasink "logpipe-go/internal/sink/kafka"
	memorysink "logpipe-go/internal/sink/memory"
	postgressink "logpipe-go/internal/sink/postgres"
	redissink "logpipe-go/internal/sink/redis"
)

func main() {
	banner.Print()

	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	logger := initLogger(&cfg.Logger)
	runID := uuid.NewString()
	logger.Info("configuration loaded",
		"path", *configPath,
		"run_id", runID,
		"sink_backend", cfg.Sink.Backend,
	)

	// Construct the sink first: an unopenable sink is a configuration
	// error and the pipeline must not start half-initialized.
	recordSink, cleanup, err := initSink(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sink", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	buf, err := buffer.New[string](cfg.Pipeline.Capacity)
	if err != nil {
		logger.Error("failed to create buffer", "error", err, "capacity", cfg.Pipeline.Capacity)
		os.Exit(1)
	}
	metrics.BufferCapacity.Set(float64(buf.Cap()))

	producers := make([]*producer.Producer, cfg.Pipeline.Producers)
	for i := range producers {
		gen := payload.NewGenerator(cfg.Pipeline.MaxProduceInterval.Std())
		producers[i] = producer.New(i+1, buf, gen, logger)
	}

	consumers := make([]*consumer.Consumer, cfg.Pipeline.Consumers)
	for i := range consumers {
		consumers[i] = consumer.New(i+1, buf, recordSink, cfg.Pipeline.DrainBackoff.Std(), logger)
	}

	server := api.NewServer(api.ServerDeps{
		Config: &cfg.Server,
		Logger: logger,
		Buffer: buf,
		Units:  registerUnits(producers, consumers),
		RunID:  runID,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("ops server error", "error", err)
			cancel()
		}
	}()

	for _, p := range producers {
		p.Start()
	}
	for _, c := range consumers {
		c.Start()
	}

	logger.Info("LogPipe started",
		"address", cfg.Server.Address(),
		"capacity", cfg.Pipeline.Capacity,
		"producers", len(producers),
		"consumers", len(consumers),
	)

	if cfg.Pipeline.RunDuration.Std() > 0 {
		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
		case <-time.After(cfg.Pipeline.RunDuration.Std()):
			logger.Info("run duration elapsed", "duration", cfg.Pipeline.RunDuration.Std())
		}
	} else {
		<-ctx.Done()
		logger.Info("shutdown signal received")
	}

	// Shutdown order matters: closing the buffer first releases any
	// blocked unit; producers then see rejected pushes, and consumers
	// keep popping until the buffer is drained.
	buf.Shutdown()

	for _, p := range producers {
		p.Stop()
	}

	waitForDrain(buf, logger, 10*time.Second)

	for _, c := range consumers {
		c.Stop()
	}

	if err := recordSink.Flush(); err != nil {
		logger.Error("sink flush error", "error", err)
	}
	if err := recordSink.Close(); err != nil {
		logger.Error("sink close error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout.Std())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}

	logger.Info("LogPipe stopped", "run_id", runID, "remaining", buf.Len())
}

// initSink constructs the configured sink backend and a cleanup func.
func initSink(cfg *config.Config, logger *slog.Logger) (sink.Sink, func(), error) {
	switch cfg.Sink.Backend {
	case config.SinkBackendFile:
		s, err := filesink.New(cfg.Sink.File.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file sink ready", "path", s.Path())
		return s, func() { _ = s.Close() }, nil

	case config.SinkBackendMemory:
		s := memorysink.New()
		logger.Info("in-memory sink ready")
		return s, func() { _ = s.Close() }, nil

	case config.SinkBackendKafka:
		s := kafkasink.New(&cfg.Sink.Kafka)
		logger.Info("kafka sink ready",
			"brokers", strings.Join(cfg.Sink.Kafka.Brokers, ","),
			"topic", cfg.Sink.Kafka.Topic,
		)
		return s, func() { _ = s.Close() }, nil

	case config.SinkBackendRedis:
		s, err := redissink.New(&cfg.Sink.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("redis sink ready",
			"address", cfg.Sink.Redis.RedisAddr(),
			"list_key", cfg.Sink.Redis.ListKey,
		)
		return s, func() { _ = s.Close() }, nil

	case config.SinkBackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := postgressink.New(ctx, &cfg.Sink.Postgres)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("postgres sink ready",
			"host", cfg.Sink.Postgres.Host,
			"database", cfg.Sink.Postgres.Database,
		)
		return s, func() { _ = s.Close() }, nil
	}

	// Unreachable after config validation.
	return nil, nil, fmt.Errorf("unknown sink backend %q", cfg.Sink.Backend)
}

// registerUnits builds the read-only views served by the ops API.
func registerUnits(producers []*producer.Producer, consumers []*consumer.Consumer) []api.RegisteredUnit {
	units := make([]api.RegisteredUnit, 0, len(producers)+len(consumers))
	for _, p := range producers {
		units = append(units, api.RegisteredUnit{Role: "producer", Unit: p, Count: p.Produced})
	}
	for _, c := range consumers {
		units = append(units, api.RegisteredUnit{Role: "consumer", Unit: c, Count: c.Consumed})
	}
	return units
}

// waitForDrain blocks until the buffer is empty or the timeout expires.
func waitForDrain(buf *buffer.Buffer[string], logger *slog.Logger, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for !buf.Empty() {
		if time.Now().After(deadline) {
			logger.Warn("drain timed out", "remaining", buf.Len())
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	logger.Info("buffer drained")
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
