package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Crawl.RunTimeout() != 10*time.Minute {
		t.Fatalf("unexpected default run timeout: %v", cfg.Crawl.RunTimeout())
	}
	if cfg.Refiner.CallTimeout() != 30*time.Second {
		t.Fatalf("unexpected default call timeout: %v", cfg.Refiner.CallTimeout())
	}
	if cfg.Batch.Concurrency != 4 {
		t.Fatalf("unexpected default batch concurrency: %d", cfg.Batch.Concurrency)
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
http:
  addr: ":9090"
crawl:
  budgetPerLanguage: 20
sources:
  - id: en-1
    name: en one
    language: en
    feedUrl: https://example.com/feed
    active: true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("file override lost: %q", cfg.HTTP.Addr)
	}
	if cfg.Crawl.BudgetPerLanguage != 20 {
		t.Fatalf("expected budget 20, got %d", cfg.Crawl.BudgetPerLanguage)
	}
	// Untouched sections keep their defaults.
	if cfg.Crawl.RunTimeoutMinutes != 10 {
		t.Fatalf("default run timeout lost: %d", cfg.Crawl.RunTimeoutMinutes)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].ID != "en-1" {
		t.Fatalf("sources not loaded: %+v", cfg.Sources)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("redis:\n  addr: file:6379\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(redisAddrEnv, "env:6379")
	t.Setenv(refinerKeyEnv, "sk-test")

	cfg := Load()
	if cfg.Redis.Addr != "env:6379" {
		t.Fatalf("env override lost: %q", cfg.Redis.Addr)
	}
	if cfg.Refiner.APIKey != "sk-test" {
		t.Fatalf("api key override lost: %q", cfg.Refiner.APIKey)
	}
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected defaults on unreadable file, got %q", cfg.HTTP.Addr)
	}
}
