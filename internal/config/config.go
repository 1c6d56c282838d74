package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	DBConnMaxLifetime       time.Duration
	UseMemoryStore          bool

	CacheEnabled       bool
	CacheTTL           time.Duration
	CORSAllowedOrigins []string
	SwaggerEnabled     bool

	AnubisBaseURL       string
	AnubisIntrospectURL string
	AnubisAdminRole     string
	AnubisAdminKey      string
	AnubisTimeout       time.Duration
	AnubisCacheTTL      time.Duration
	InternalJobToken    string

	VLRBaseURL               string
	VLREventsPath            string
	VLRUserAgent             string
	VLRTimeout               time.Duration
	VLRRequestInterval       time.Duration
	VLRMaxRetries            int
	VLRRetryBaseDelay        time.Duration
	VLRRetryMaxDelay         time.Duration
	VLREventIDs              []string
	VLRCircuitEnabled        bool
	VLRCircuitFailureCount   int
	VLRCircuitOpenTimeout    time.Duration
	VLRCircuitHalfOpenMaxReq int

	SyncEnabled          bool
	SyncInterval         time.Duration
	SyncWorkers          int
	SyncMatchMaxAttempts int
	SyncRetryBackoff     time.Duration
	SyncRunTimeout       time.Duration

	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

// Load reads the process environment, after merging an optional .env file
// (ENV_FILE, default ".env"). Variables already set in the environment win.
func Load() (Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    strings.TrimSpace(getEnv("SERVICE_NAME", "valorant-fantasy")),
		ServiceVersion: strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		HTTPAddr:       getEnv("APP_ADDR", ":8080"),
		LogLevel:       logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.ReadTimeout, err = parsePositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = parsePositiveDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if err := loadStore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadAuth(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadVLR(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadSync(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadQStash(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadStore(cfg *Config) error {
	var err error
	if cfg.UseMemoryStore, err = strconv.ParseBool(getEnv("USE_MEMORY_STORE", "false")); err != nil {
		return fmt.Errorf("parse USE_MEMORY_STORE: %w", err)
	}
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if !cfg.UseMemoryStore && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when USE_MEMORY_STORE=false")
	}
	if cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false")); err != nil {
		return fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	if cfg.DBMaxOpenConns, err = parsePositiveInt("DB_MAX_OPEN_CONNS", 20); err != nil {
		return err
	}
	if cfg.DBMaxIdleConns, err = parsePositiveInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return err
	}
	if cfg.DBConnMaxLifetime, err = parsePositiveDuration("DB_CONN_MAX_LIFETIME", "30m"); err != nil {
		return err
	}
	if cfg.CacheEnabled, err = strconv.ParseBool(getEnv("CACHE_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	if cfg.CacheTTL, err = parsePositiveDuration("CACHE_TTL", "60s"); err != nil {
		return err
	}
	if cfg.SwaggerEnabled, err = strconv.ParseBool(getEnv("SWAGGER_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}
	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	return nil
}

func loadAuth(cfg *Config) error {
	var err error
	cfg.AnubisBaseURL = strings.TrimSpace(getEnv("ANUBIS_BASE_URL", "http://localhost:8081"))
	cfg.AnubisIntrospectURL = strings.TrimSpace(getEnv("ANUBIS_INTROSPECT_PATH", "/v1/auth/introspect"))
	cfg.AnubisAdminRole = strings.TrimSpace(getEnv("ANUBIS_ADMIN_ROLE", "admin"))
	cfg.AnubisAdminKey = strings.TrimSpace(getEnv("ANUBIS_ADMIN_KEY", ""))
	if cfg.AnubisTimeout, err = parsePositiveDuration("ANUBIS_TIMEOUT", "3s"); err != nil {
		return err
	}
	if cfg.AnubisCacheTTL, err = parsePositiveDuration("ANUBIS_CACHE_TTL", "30s"); err != nil {
		return err
	}
	cfg.InternalJobToken = strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))

	return nil
}

func loadVLR(cfg *Config) error {
	var err error
	cfg.VLRBaseURL = strings.TrimSpace(getEnv("VLR_BASE_URL", "https://www.vlr.gg"))
	if cfg.VLRBaseURL == "" {
		return fmt.Errorf("VLR_BASE_URL is required")
	}
	cfg.VLREventsPath = strings.TrimSpace(getEnv("VLR_EVENTS_PATH", "/events/?tier=60"))
	cfg.VLRUserAgent = getEnv("VLR_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	if cfg.VLRTimeout, err = parsePositiveDuration("VLR_TIMEOUT", "15s"); err != nil {
		return err
	}
	if cfg.VLRRequestInterval, err = parsePositiveDuration("VLR_REQUEST_INTERVAL", "1500ms"); err != nil {
		return err
	}
	if cfg.VLRMaxRetries, err = getEnvAsInt("VLR_MAX_RETRIES", 3); err != nil {
		return fmt.Errorf("parse VLR_MAX_RETRIES: %w", err)
	}
	if cfg.VLRMaxRetries < 0 {
		return fmt.Errorf("VLR_MAX_RETRIES must be >= 0")
	}
	if cfg.VLRRetryBaseDelay, err = parsePositiveDuration("VLR_RETRY_BASE_DELAY", "2s"); err != nil {
		return err
	}
	if cfg.VLRRetryMaxDelay, err = parsePositiveDuration("VLR_RETRY_MAX_DELAY", "30s"); err != nil {
		return err
	}
	cfg.VLREventIDs = splitCSV(getEnv("VLR_EVENT_IDS", "2682,2683,2684,2685,2760,2765,2766"))
	for _, id := range cfg.VLREventIDs {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return fmt.Errorf("invalid VLR_EVENT_IDS item %q: %w", id, err)
		}
	}

	if cfg.VLRCircuitEnabled, err = strconv.ParseBool(getEnv("VLR_CIRCUIT_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse VLR_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.VLRCircuitFailureCount, err = parsePositiveInt("VLR_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return err
	}
	if cfg.VLRCircuitOpenTimeout, err = parsePositiveDuration("VLR_CIRCUIT_OPEN_TIMEOUT", "60s"); err != nil {
		return err
	}
	if cfg.VLRCircuitHalfOpenMaxReq, err = parsePositiveInt("VLR_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return err
	}

	return nil
}

func loadSync(cfg *Config) error {
	var err error
	if cfg.SyncEnabled, err = strconv.ParseBool(getEnv("SYNC_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse SYNC_ENABLED: %w", err)
	}
	if cfg.SyncInterval, err = parsePositiveDuration("SYNC_INTERVAL", "5m"); err != nil {
		return err
	}
	if cfg.SyncWorkers, err = parsePositiveInt("SYNC_WORKERS", 4); err != nil {
		return err
	}
	if cfg.SyncMatchMaxAttempts, err = parsePositiveInt("SYNC_MATCH_MAX_ATTEMPTS", 3); err != nil {
		return err
	}
	if cfg.SyncRetryBackoff, err = parsePositiveDuration("SYNC_RETRY_BACKOFF", "2s"); err != nil {
		return err
	}
	if cfg.SyncRunTimeout, err = parsePositiveDuration("SYNC_RUN_TIMEOUT", "10m"); err != nil {
		return err
	}

	return nil
}

func loadQStash(cfg *Config) error {
	var err error
	if cfg.QStashEnabled, err = strconv.ParseBool(getEnv("QSTASH_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	cfg.QStashBaseURL = strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	cfg.QStashToken = strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	cfg.QStashTargetBaseURL = strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	if cfg.QStashRetries, err = getEnvAsInt("QSTASH_RETRIES", 3); err != nil {
		return fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if !cfg.QStashEnabled {
		return nil
	}
	if cfg.QStashToken == "" {
		return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
	}
	if cfg.QStashTargetBaseURL == "" {
		return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
	}
	if cfg.InternalJobToken == "" {
		return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
	}

	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = getEnv("PYROSCOPE_AUTH_TOKEN", "")
	cfg.PyroscopeBasicAuthUser = getEnv("PYROSCOPE_BASIC_AUTH_USER", "")
	cfg.PyroscopeBasicAuthPassword = getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")
	if cfg.PyroscopeUploadRate, err = parsePositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}

	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	return nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
