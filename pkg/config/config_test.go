package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:           DefaultMongoURI,
		MongoDatabaseName:  DefaultMongoDatabaseName,
		MongoConnTimeout:   DefaultMongoConnTimeout,
		StorageBackend:     StorageMongo,
		Port:               DefaultPort,
		RateLimitRequests:  DefaultRateLimitRequests,
		RateLimitWindow:    DefaultRateLimitWindow,
		RequestTimeout:     DefaultRequestTimeout,
		IdempotencyTTL:     DefaultIdempotencyTTL,
		MaxRequestSize:     DefaultMaxRequestSize,
		ReadTimeout:        DefaultReadTimeout,
		WriteTimeout:       DefaultWriteTimeout,
		IdleTimeout:        DefaultIdleTimeout,
		ShutdownTimeout:    DefaultShutdownTimeout,
		AdmissionQueueSize: DefaultAdmissionQueueSize,
		AdmissionTimeout:   DefaultAdmissionTimeout,

		EventPublishTimeout: DefaultEventPublishTimeout,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:   "memory backend ignores mongo settings",
			mutate: func(cfg *Config) { cfg.StorageBackend = StorageMemory; cfg.MongoURI = "" },
		},
		{
			name:    "invalid port",
			mutate:  func(cfg *Config) { cfg.Port = "70000" },
			wantErr: "Port must be between 1 and 65535",
		},
		{
			name:    "bad mongo scheme",
			mutate:  func(cfg *Config) { cfg.MongoURI = "postgres://localhost" },
			wantErr: "MongoURI must start with",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(cfg *Config) { cfg.StorageBackend = "sqlite" },
			wantErr: "StorageBackend must be one of",
		},
		{
			name:    "zero admission queue",
			mutate:  func(cfg *Config) { cfg.AdmissionQueueSize = 0 },
			wantErr: "AdmissionQueueSize must be positive",
		},
		{
			name:    "negative admission timeout",
			mutate:  func(cfg *Config) { cfg.AdmissionTimeout = -time.Second },
			wantErr: "AdmissionTimeout must be positive",
		},
		{
			name:    "zero event publish timeout",
			mutate:  func(cfg *Config) { cfg.EventPublishTimeout = 0 },
			wantErr: "EventPublishTimeout must be positive",
		},
		{
			name:    "kafka enabled without topic",
			mutate:  func(cfg *Config) { cfg.KafkaEnabled = true; cfg.ReservationEventsTopic = "" },
			wantErr: "ReservationEventsTopic cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.AdmissionQueueSize = -1
	cfg.RequestTimeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"1. ", "2. ", "3. "} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected numbered entry %q in %q", want, err.Error())
		}
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv(EnvStorageBackend, StorageMemory)
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvAdmissionQueueSize, "16")
	t.Setenv(EnvAdmissionTimeout, "250ms")
	t.Setenv(EnvKafkaEnabled, "true")
	t.Setenv(EnvLogLevel, "error")

	cfg := Load("config-test")

	if cfg.StorageBackend != StorageMemory {
		t.Errorf("expected memory backend, got %s", cfg.StorageBackend)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.AdmissionQueueSize != 16 {
		t.Errorf("expected queue size 16, got %d", cfg.AdmissionQueueSize)
	}
	if cfg.AdmissionTimeout != 250*time.Millisecond {
		t.Errorf("expected admission timeout 250ms, got %s", cfg.AdmissionTimeout)
	}
	if !cfg.KafkaEnabled {
		t.Error("expected kafka to be enabled")
	}
	if cfg.UsesMongo() {
		t.Error("memory backend should not report mongo usage")
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if strings.Contains(got, "secret") {
		t.Errorf("expected credentials to be redacted, got %s", got)
	}
	if got != "mongodb://***:***@db:27017" {
		t.Errorf("unexpected redaction result: %s", got)
	}
}
