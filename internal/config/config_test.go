package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProbeInterval != 300*time.Second {
		t.Fatalf("probe interval = %v", cfg.ProbeInterval)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("request timeout = %v", cfg.RequestTimeout)
	}
	if cfg.CheckDelay != 250*time.Millisecond {
		t.Fatalf("check delay = %v", cfg.CheckDelay)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("storage type = %s", cfg.StorageType)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROBE_INTERVAL", "60")
	t.Setenv("CHECKS_FILE", "/tmp/checks.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProbeInterval != time.Minute {
		t.Fatalf("probe interval = %v", cfg.ProbeInterval)
	}
	if cfg.ChecksFile != "/tmp/checks.json" {
		t.Fatalf("checks file = %s", cfg.ChecksFile)
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("PROBE_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero probe interval")
	}
}
