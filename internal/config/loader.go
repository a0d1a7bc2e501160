package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "tokencalc.yaml"

// ErrMissingAPIKey is the fatal configuration error for a missing LLM
// credential. The service refuses to start without it rather than
// failing on the first pipeline call.
var ErrMissingAPIKey = errors.New("llm api key is not set (GEMINI_API_KEY)")

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TOKENCALC_PORT")
	setString(&cfg.Server.CORSOrigin, "TOKENCALC_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TOKENCALC_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TOKENCALC_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TOKENCALC_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TOKENCALC_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TOKENCALC_PG_HEALTH_CHECK")
	setString(&cfg.LLM.URL, "TOKENCALC_LLM_URL")
	setString(&cfg.LLM.Model, "TOKENCALC_LLM_MODEL")
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setDuration(&cfg.LLM.Timeout, "TOKENCALC_LLM_TIMEOUT")
	setString(&cfg.Logging.Level, "TOKENCALC_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TOKENCALC_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "TOKENCALC_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Cooldown, "TOKENCALC_BREAKER_COOLDOWN")
	setUint64(&cfg.Retry.MaxAttempts, "TOKENCALC_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.Retry.BaseDelay, "TOKENCALC_RETRY_BASE_DELAY")
	setFloat64(&cfg.Rate.RequestsPerSecond, "TOKENCALC_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TOKENCALC_RATE_BURST")
	setInt64(&cfg.Cache.MaxSizeMB, "TOKENCALC_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "TOKENCALC_CACHE_TTL")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.LLM.URL == "" {
		return errors.New("llm.url is required")
	}
	if cfg.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if cfg.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
