package kafka_config

import (
	"fmt"
	"os"
	"roomres/pkg/logger"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequireAcks  int // -1 = all, 0 = none, 1 = leader only
	Compression  string
	Async        bool
}

type ConsumerConfig struct {
	StartOffset       int64 // kafka.FirstOffset or kafka.LastOffset
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Config holds broker settings shared by the reservation event producer and
// the notifier consumer.
type Config struct {
	Brokers  []string
	ClientID string

	Producer ProducerConfig
	Consumer ConsumerConfig

	EnableMiddleware bool
}

// Load reads the Kafka settings from the environment and validates them.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers:  splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		ClientID: getEnvStr(EnvKafkaClientID, DefaultKafkaClientID),
		Producer: ProducerConfig{
			MaxAttempts:  getEnvInt(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: getEnvDuration(EnvProducerBatchTimeout, DefaultProducerBatchTimeout),
			WriteTimeout: getEnvDuration(EnvProducerWriteTimeout, DefaultProducerWriteTimeout),
			RequireAcks:  getEnvInt(EnvProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  strings.ToLower(getEnvStr(EnvProducerCompression, DefaultProducerCompression)),
			Async:        getEnvBool(EnvProducerAsync, DefaultProducerAsync),
		},
		Consumer: ConsumerConfig{
			StartOffset:       getEnvInt64(EnvConsumerStartOffset, DefaultConsumerStartOffset),
			MinBytes:          getEnvInt(EnvConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          getEnvInt(EnvConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           getEnvDuration(EnvConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    getEnvDuration(EnvConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: getEnvDuration(EnvConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    getEnvDuration(EnvConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  getEnvDuration(EnvConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        getEnvInt(EnvConsumerMaxRetries, DefaultConsumerMaxRetries),
			RetryBackoff:      getEnvDuration(EnvConsumerRetryBackoff, DefaultConsumerRetryBackoff),
		},
		EnableMiddleware: getEnvBool(EnvEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitBrokers(raw string) []string {
	brokers := strings.Split(raw, ",")
	for i, broker := range brokers {
		brokers[i] = strings.TrimSpace(broker)
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}
	if cfg.ClientID == "" {
		errors = append(errors, "ClientID cannot be empty")
	}

	errors = append(errors, cfg.Producer.validate()...)
	errors = append(errors, cfg.Consumer.validate()...)

	if len(errors) > 0 {
		errMsg := "Kafka configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

func (p ProducerConfig) validate() []string {
	var errors []string
	if p.MaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("Producer.MaxAttempts must be positive, got: %d", p.MaxAttempts))
	}
	if p.BatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("Producer.BatchTimeout must be positive, got: %s", p.BatchTimeout))
	}
	if p.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("Producer.WriteTimeout must be positive, got: %s", p.WriteTimeout))
	}
	if !slices.Contains(Compressions, p.Compression) {
		errors = append(errors, fmt.Sprintf("Producer.Compression must be one of [%s], got: %s", strings.Join(Compressions, ", "), p.Compression))
	}
	switch kafka.RequiredAcks(p.RequireAcks) {
	case kafka.RequireAll, kafka.RequireNone, kafka.RequireOne:
	default:
		errors = append(errors, fmt.Sprintf("Producer.RequireAcks must be -1, 0, or 1, got: %d", p.RequireAcks))
	}
	return errors
}

func (c ConsumerConfig) validate() []string {
	var errors []string
	if c.StartOffset != kafka.FirstOffset && c.StartOffset != kafka.LastOffset {
		errors = append(errors, fmt.Sprintf("Consumer.StartOffset must be %d (oldest) or %d (newest), got: %d", kafka.FirstOffset, kafka.LastOffset, c.StartOffset))
	}
	if c.MinBytes <= 0 {
		errors = append(errors, fmt.Sprintf("Consumer.MinBytes must be positive, got: %d", c.MinBytes))
	}
	if c.MaxBytes < c.MinBytes {
		errors = append(errors, fmt.Sprintf("Consumer.MaxBytes must be at least MinBytes, got: %d", c.MaxBytes))
	}
	if c.MaxWait <= 0 {
		errors = append(errors, fmt.Sprintf("Consumer.MaxWait must be positive, got: %s", c.MaxWait))
	}
	if c.CommitInterval < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.CommitInterval cannot be negative, got: %s", c.CommitInterval))
	}
	if c.HeartbeatInterval <= 0 {
		errors = append(errors, fmt.Sprintf("Consumer.HeartbeatInterval must be positive, got: %s", c.HeartbeatInterval))
	}
	if c.SessionTimeout <= c.HeartbeatInterval {
		errors = append(errors, fmt.Sprintf("Consumer.SessionTimeout must exceed HeartbeatInterval, got: %s", c.SessionTimeout))
	}
	if c.RebalanceTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("Consumer.RebalanceTimeout must be positive, got: %s", c.RebalanceTimeout))
	}
	if c.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.MaxRetries cannot be negative, got: %d", c.MaxRetries))
	}
	if c.RetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("Consumer.RetryBackoff cannot be negative, got: %s", c.RetryBackoff))
	}
	return errors
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"producer_max_attempts", cfg.Producer.MaxAttempts,
		"producer_write_timeout", cfg.Producer.WriteTimeout,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"producer_async", cfg.Producer.Async,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_commit_interval", cfg.Consumer.CommitInterval,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"consumer_retry_backoff", cfg.Consumer.RetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
