package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Ledger.Backend != LedgerSQLite || cfg.Ledger.SQLitePath != "./data/provia.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"9090\"\nledger:\n  backend: redis\nredis:\n  addr: localhost:6379\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Ledger.Backend != LedgerRedis {
		t.Fatalf("file values not applied %+v", cfg)
	}
	if cfg.Session.TickInterval != "1s" {
		t.Fatalf("expected default tick interval to survive, got %q", cfg.Session.TickInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{"PORT": "7000", "LEDGER_BACKEND": "postgres", "POSTGRES_URL": "postgres://x"}
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.Server.Port != "7000" || cfg.Ledger.Backend != LedgerPostgres || cfg.Postgres.URL != "postgres://x" {
		t.Fatalf("env not applied %+v", cfg)
	}
}

func TestValidateRejectsBadBackends(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Backend = LedgerRedis
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected redis backend without addr to fail")
	}
	cfg.Ledger.Backend = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown backend to fail")
	}
	cfg = Default()
	cfg.Session.TickInterval = "soon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected bad duration to fail")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}
