// Package config provides configuration loading and management for LogPipe.
// It supports loading configuration from YAML files with sensible defaults
// and construction-time validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "500ms" or "2s"
// parse; bare integers are taken as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %s", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SinkBackend selects the destination for consumed records.
type SinkBackend string

const (
	// SinkBackendFile appends records to a local JSON Lines file.
	SinkBackendFile SinkBackend = "file"
	// SinkBackendMemory keeps records in process memory (dev/testing).
	SinkBackendMemory SinkBackend = "memory"
	// SinkBackendKafka publishes records to a Kafka topic.
	SinkBackendKafka SinkBackend = "kafka"
	// SinkBackendRedis pushes records onto a Redis list.
	SinkBackendRedis SinkBackend = "redis"
	// SinkBackendPostgres inserts records into a PostgreSQL table.
	SinkBackendPostgres SinkBackend = "postgres"
)

// IsValid returns true if the sink backend is one of the known values.
func (b SinkBackend) IsValid() bool {
	switch b {
	case SinkBackendFile, SinkBackendMemory, SinkBackendKafka, SinkBackendRedis, SinkBackendPostgres:
		return true
	}
	return false
}

// Config represents the complete application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Sink     SinkConfig     `yaml:"sink"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// PipelineConfig holds the buffer and unit settings.
type PipelineConfig struct {
	// Capacity is the maximum number of records the buffer holds.
	Capacity int `yaml:"capacity"`
	// Producers is the number of producer units.
	Producers int `yaml:"producers"`
	// Consumers is the number of consumer units.
	Consumers int `yaml:"consumers"`
	// MaxProduceInterval bounds the random pacing sleep between productions.
	MaxProduceInterval Duration `yaml:"max_produce_interval"`
	// DrainBackoff is the consumer sleep when the buffer is closed and empty.
	DrainBackoff Duration `yaml:"drain_backoff"`
	// RunDuration stops the pipeline after this long; zero means run
	// until a shutdown signal arrives.
	RunDuration Duration `yaml:"run_duration"`
}

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// SinkConfig selects and configures the record destination.
type SinkConfig struct {
	Backend  SinkBackend    `yaml:"backend"`
	File     FileConfig     `yaml:"file"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// FileConfig holds file sink settings.
type FileConfig struct {
	Path string `yaml:"path"`
}

// KafkaConfig holds Kafka connection and topic settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	ListKey  string `yaml:"list_key"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int32  `yaml:"max_open_conns"`
	MaxIdleConns int32  `yaml:"max_idle_conns"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from the specified YAML file path.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	// Clean the path to prevent path traversal attacks
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for construction-time errors.
// The pipeline must not start in a partially valid state.
func (c *Config) Validate() error {
	if c.Pipeline.Capacity <= 0 {
		return fmt.Errorf("pipeline capacity must be greater than zero, got %d", c.Pipeline.Capacity)
	}
	if c.Pipeline.Producers <= 0 {
		return fmt.Errorf("pipeline producers must be greater than zero, got %d", c.Pipeline.Producers)
	}
	if c.Pipeline.Consumers <= 0 {
		return fmt.Errorf("pipeline consumers must be greater than zero, got %d", c.Pipeline.Consumers)
	}
	if !c.Sink.Backend.IsValid() {
		return fmt.Errorf("unknown sink backend %q", c.Sink.Backend)
	}
	return nil
}

// applyDefaults sets sensible default values for configuration fields
// that are not explicitly set in the config file.
func applyDefaults(cfg *Config) {
	// Pipeline defaults
	if cfg.Pipeline.Capacity == 0 {
		cfg.Pipeline.Capacity = 100
	}
	if cfg.Pipeline.Producers == 0 {
		cfg.Pipeline.Producers = 3
	}
	if cfg.Pipeline.Consumers == 0 {
		cfg.Pipeline.Consumers = 2
	}
	if cfg.Pipeline.MaxProduceInterval == 0 {
		cfg.Pipeline.MaxProduceInterval = Duration(2 * time.Second)
	}
	if cfg.Pipeline.DrainBackoff == 0 {
		cfg.Pipeline.DrainBackoff = Duration(10 * time.Millisecond)
	}

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = Duration(120 * time.Second)
	}

	// Sink defaults
	if cfg.Sink.Backend == "" {
		cfg.Sink.Backend = SinkBackendFile
	}
	if cfg.Sink.File.Path == "" {
		cfg.Sink.File.Path = "logs.jsonl"
	}
	if len(cfg.Sink.Kafka.Brokers) == 0 {
		cfg.Sink.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Sink.Kafka.Topic == "" {
		cfg.Sink.Kafka.Topic = "logpipe-records"
	}
	if cfg.Sink.Redis.Host == "" {
		cfg.Sink.Redis.Host = "localhost"
	}
	if cfg.Sink.Redis.Port == 0 {
		cfg.Sink.Redis.Port = 6379
	}
	if cfg.Sink.Redis.ListKey == "" {
		cfg.Sink.Redis.ListKey = "logpipe:records"
	}
	if cfg.Sink.Postgres.Host == "" {
		cfg.Sink.Postgres.Host = "localhost"
	}
	if cfg.Sink.Postgres.Port == 0 {
		cfg.Sink.Postgres.Port = 5432
	}
	if cfg.Sink.Postgres.SSLMode == "" {
		cfg.Sink.Postgres.SSLMode = "disable"
	}
	if cfg.Sink.Postgres.MaxOpenConns == 0 {
		cfg.Sink.Postgres.MaxOpenConns = 10
	}
	if cfg.Sink.Postgres.MaxIdleConns == 0 {
		cfg.Sink.Postgres.MaxIdleConns = 2
	}

	// Logger defaults
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
}

// Address returns the full server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the Redis address in host:port format.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
