package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STORAGE_PATH", filepath.Join(t.TempDir(), "threads.db"))
	t.Setenv("CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.CacheTTL != 6*time.Hour {
		t.Fatalf("unexpected default cache ttl: %v", cfg.CacheTTL)
	}
	if cfg.MaxToolRounds != 8 {
		t.Fatalf("unexpected default tool rounds: %d", cfg.MaxToolRounds)
	}
	if cfg.Model == "" {
		t.Fatal("expected a default model")
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := t.TempDir()
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "threads.db"))
	t.Setenv("CACHE_PATH", filepath.Join(dir, "cache.db"))

	path := filepath.Join(dir, "config.yaml")
	yaml := "model: gpt-4o\ncache_ttl: 2h\nmax_tool_rounds: 3\ntemperature: 0.2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Fatalf("model override not applied: %q", cfg.Model)
	}
	if cfg.CacheTTL != 2*time.Hour {
		t.Fatalf("cache ttl override not applied: %v", cfg.CacheTTL)
	}
	if cfg.MaxToolRounds != 3 {
		t.Fatalf("tool rounds override not applied: %d", cfg.MaxToolRounds)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("temperature override not applied: %v", cfg.Temperature)
	}
}

func TestLoadEnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "threads.db"))
	t.Setenv("CACHE_PATH", filepath.Join(dir, "cache.db"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("model: gpt-4o\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Model != "gpt-4.1" {
		t.Fatalf("env override should win: %q", cfg.Model)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
}
