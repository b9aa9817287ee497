package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roombook/pkg/logger"
)

func validConfig() *Config {
	return &Config{
		MongoURI:          DefaultMongoURI,
		MongoDatabaseName: DefaultMongoDatabaseName,
		MongoConnTimeout:  DefaultMongoConnTimeout,
		StoreBackend:      StoreBackendMongo,
		Port:              DefaultPort,
		RateLimitRequests: DefaultRateLimitRequests,
		RateLimitWindow:   DefaultRateLimitWindow,
		RequestTimeout:    DefaultRequestTimeout,
		IdempotencyTTL:    DefaultIdempotencyTTL,
		MaxRequestSize:    DefaultMaxRequestSize,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		MaxStayNights:     DefaultMaxStayNights,
		JWTTTL:            DefaultJWTTTL,
		BcryptCost:        DefaultBcryptCost,
		EventsBackend:     EventsBackendNone,
		KafkaBrokers:      []string{DefaultKafkaBrokers},
		KafkaTopic:        DefaultKafkaTopic,
		AMQPQueue:         DefaultAMQPQueue,
		Log:               logger.Discard(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(cfg *Config) {}},
		{name: "memory store needs no mongo uri", mutate: func(cfg *Config) {
			cfg.StoreBackend = StoreBackendMemory
			cfg.MongoURI = ""
		}},
		{name: "bad port", mutate: func(cfg *Config) { cfg.Port = "70000" }, wantErr: "Port"},
		{name: "bad mongo scheme", mutate: func(cfg *Config) { cfg.MongoURI = "postgres://localhost" }, wantErr: "MongoURI"},
		{name: "unknown store backend", mutate: func(cfg *Config) { cfg.StoreBackend = "sqlite" }, wantErr: "StoreBackend"},
		{name: "zero max stay", mutate: func(cfg *Config) { cfg.MaxStayNights = 0 }, wantErr: "MaxStayNights"},
		{name: "short jwt secret", mutate: func(cfg *Config) { cfg.JWTSecret = "short" }, wantErr: "JWTSecret"},
		{name: "bcrypt cost out of range", mutate: func(cfg *Config) { cfg.BcryptCost = 40 }, wantErr: "BcryptCost"},
		{name: "amqp without url", mutate: func(cfg *Config) { cfg.EventsBackend = EventsBackendAMQP }, wantErr: "AMQPURL"},
		{name: "kafka without topic", mutate: func(cfg *Config) {
			cfg.EventsBackend = EventsBackendKafka
			cfg.KafkaTopic = ""
		}, wantErr: "KafkaTopic"},
		{name: "unknown events backend", mutate: func(cfg *Config) { cfg.EventsBackend = "sns" }, wantErr: "EventsBackend"},
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
				t.Fatalf("expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.MaxStayNights = -1
	cfg.RequestTimeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"Port", "MaxStayNights", "RequestTimeout"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ROOMBOOK_TEST_NUM", "42")
	t.Setenv("ROOMBOOK_TEST_BAD_NUM", "forty")
	t.Setenv("ROOMBOOK_TEST_DURATION", "90s")
	t.Setenv("ROOMBOOK_TEST_LIST", " a@x.io, ,b@x.io ")

	if got := getEnvNum("ROOMBOOK_TEST_NUM", 1); got != 42 {
		t.Errorf("getEnvNum = %d, want 42", got)
	}
	if got := getEnvNum("ROOMBOOK_TEST_BAD_NUM", 7); got != 7 {
		t.Errorf("unparsable number should fall back, got %d", got)
	}
	if got := getEnvDuration("ROOMBOOK_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration = %s", got)
	}
	if got := getEnvStr("ROOMBOOK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnvStr = %s", got)
	}

	list := getEnvList("ROOMBOOK_TEST_LIST", nil)
	if len(list) != 2 || list[0] != "a@x.io" || list[1] != "b@x.io" {
		t.Errorf("getEnvList = %v", list)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("ROOMBOOK_DOTENV_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDotEnvFile, path)
	t.Setenv("ROOMBOOK_DOTENV_VALUE", "")
	os.Unsetenv("ROOMBOOK_DOTENV_VALUE")

	if err := loadDotEnv(); err != nil {
		t.Fatalf("loadDotEnv failed: %v", err)
	}
	if got := os.Getenv("ROOMBOOK_DOTENV_VALUE"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}

	t.Setenv(EnvDotEnvFile, filepath.Join(t.TempDir(), "missing.env"))
	if err := loadDotEnv(); err != nil {
		t.Errorf("a missing file should be ignored, got %v", err)
	}
}

func TestIsAdminEmail(t *testing.T) {
	cfg := validConfig()
	cfg.AdminEmails = []string{"Ops@Example.com"}

	if !cfg.IsAdminEmail("ops@example.com") {
		t.Error("admin email match should ignore case")
	}
	if cfg.IsAdminEmail("guest@example.com") {
		t.Error("unexpected admin")
	}
}

func TestNormalizePagination(t *testing.T) {
	if got := NormalizePaginationLimit(0); got != 10 {
		t.Errorf("NormalizePaginationLimit(0) = %d", got)
	}
	if got := NormalizePaginationLimit(DefaultPaginationLimit + 1); got != DefaultPaginationLimit {
		t.Errorf("limit should be capped, got %d", got)
	}
	if got := NormalizeOffset(-5); got != 0 {
		t.Errorf("NormalizeOffset(-5) = %d", got)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/roombook")
	if strings.Contains(got, "secret") || !strings.Contains(got, "***:***@db") {
		t.Errorf("credentials not redacted: %s", got)
	}
}
