package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("QSTASH_ENABLED", "false")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_DBURLRequiredWithoutMemoryStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("USE_MEMORY_STORE", "false")
	t.Setenv("DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DB_URL is empty and USE_MEMORY_STORE=false")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn=\"https://token@api.uptrace.dev/1\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_QStashRequiresTokens(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "qstash-token")
	t.Setenv("QSTASH_TARGET_BASE_URL", "https://api.example.com")
	t.Setenv("INTERNAL_JOB_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QSTASH_ENABLED=true without INTERNAL_JOB_TOKEN")
	}
}

func TestLoad_SyncAndVLRDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Fatalf("unexpected SyncInterval: %s", cfg.SyncInterval)
	}
	if cfg.VLRRequestInterval != 1500*time.Millisecond {
		t.Fatalf("unexpected VLRRequestInterval: %s", cfg.VLRRequestInterval)
	}
	if cfg.VLRMaxRetries != 3 || cfg.SyncMatchMaxAttempts != 3 {
		t.Fatalf("unexpected retry defaults: vlr=%d sync=%d", cfg.VLRMaxRetries, cfg.SyncMatchMaxAttempts)
	}
	if len(cfg.VLREventIDs) != 7 || cfg.VLREventIDs[0] != "2682" {
		t.Fatalf("unexpected VLREventIDs: %v", cfg.VLREventIDs)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative sync workers", key: "SYNC_WORKERS", value: "0"},
		{name: "bad interval", key: "SYNC_INTERVAL", value: "soon"},
		{name: "non numeric event id", key: "VLR_EVENT_IDS", value: "2682,abc"},
		{name: "negative retries", key: "VLR_MAX_RETRIES", value: "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("SYNC_WORKERS=9\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("SYNC_WORKERS", "")
	os.Unsetenv("SYNC_WORKERS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SyncWorkers != 9 {
		t.Fatalf("expected SyncWorkers=9 from env file, got %d", cfg.SyncWorkers)
	}
}
