package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  capacity: 10\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Pipeline.Capacity != 10 {
		t.Errorf("Capacity = %d, want 10", cfg.Pipeline.Capacity)
	}
	if cfg.Pipeline.Producers != 3 {
		t.Errorf("Producers = %d, want default 3", cfg.Pipeline.Producers)
	}
	if cfg.Pipeline.Consumers != 2 {
		t.Errorf("Consumers = %d, want default 2", cfg.Pipeline.Consumers)
	}
	if cfg.Pipeline.MaxProduceInterval.Std() != 2*time.Second {
		t.Errorf("MaxProduceInterval = %v, want 2s", cfg.Pipeline.MaxProduceInterval.Std())
	}
	if cfg.Pipeline.DrainBackoff.Std() != 10*time.Millisecond {
		t.Errorf("DrainBackoff = %v, want 10ms", cfg.Pipeline.DrainBackoff.Std())
	}
	if cfg.Sink.Backend != SinkBackendFile {
		t.Errorf("Sink.Backend = %q, want file", cfg.Sink.Backend)
	}
	if cfg.Sink.File.Path != "logs.jsonl" {
		t.Errorf("Sink.File.Path = %q, want logs.jsonl", cfg.Sink.File.Path)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("Server.Address() = %q, want 0.0.0.0:8080", cfg.Server.Address())
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Errorf("Logger defaults = %q/%q, want info/json", cfg.Logger.Level, cfg.Logger.Format)
	}
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  capacity: 50
  producers: 5
  consumers: 4
  max_produce_interval: 500ms
  drain_backoff: 25ms
  run_duration: 30s
sink:
  backend: redis
  redis:
    host: cache.internal
    port: 6380
    list_key: pipe:records
logger:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Pipeline.RunDuration.Std() != 30*time.Second {
		t.Errorf("RunDuration = %v, want 30s", cfg.Pipeline.RunDuration.Std())
	}
	if cfg.Sink.Backend != SinkBackendRedis {
		t.Errorf("Sink.Backend = %q, want redis", cfg.Sink.Backend)
	}
	if cfg.Sink.Redis.RedisAddr() != "cache.internal:6380" {
		t.Errorf("RedisAddr() = %q, want cache.internal:6380", cfg.Sink.Redis.RedisAddr())
	}
	if cfg.Sink.Redis.ListKey != "pipe:records" {
		t.Errorf("ListKey = %q, want pipe:records", cfg.Sink.Redis.ListKey)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative capacity", content: "pipeline:\n  capacity: -1\n"},
		{name: "negative producers", content: "pipeline:\n  producers: -2\n"},
		{name: "negative consumers", content: "pipeline:\n  consumers: -2\n"},
		{name: "unknown backend", content: "sink:\n  backend: s3\n"},
		{name: "malformed yaml", content: "pipeline: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load should have failed")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestSinkBackend_IsValid(t *testing.T) {
	valid := []SinkBackend{SinkBackendFile, SinkBackendMemory, SinkBackendKafka, SinkBackendRedis, SinkBackendPostgres}
	for _, b := range valid {
		if !b.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", b)
		}
	}
	if SinkBackend("elasticsearch").IsValid() {
		t.Error("IsValid(elasticsearch) = true, want false")
	}
}
