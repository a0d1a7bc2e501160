package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Errorf("api key not taken from env")
	}
}

func TestLoadFrom_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "tokencalc.yaml")
	yaml := `
server:
  port: "9999"
llm:
  model: gemini-2.5-pro
  timeout: 5s
breaker:
  max_failures: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.LLM.Timeout)
	}
	if cfg.Breaker.MaxFailures != 2 {
		t.Errorf("max_failures = %d", cfg.Breaker.MaxFailures)
	}
	// Untouched values keep defaults.
	if cfg.Rate.Burst != 100 {
		t.Errorf("burst = %d, want default 100", cfg.Rate.Burst)
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TOKENCALC_PORT", "7070")
	t.Setenv("TOKENCALC_RETRY_MAX_ATTEMPTS", "5")

	path := filepath.Join(t.TempDir(), "tokencalc.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9999\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, want env 7070", cfg.Server.Port)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
