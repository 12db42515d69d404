package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	LedgerMemory   = "memory"
	LedgerSQLite   = "sqlite"
	LedgerRedis    = "redis"
	LedgerPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		// Path to a bank JSON file; empty uses the embedded bank.
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"bank"`
	Ledger struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"ledger"`
	Session struct {
		TickInterval string `yaml:"tickInterval"`
	} `yaml:"session"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Bank.TTL = "10m"
	cfg.Ledger.Backend = LedgerSQLite
	cfg.Ledger.SQLitePath = "./data/provia.db"
	cfg.Session.TickInterval = "1s"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Port, "PORT")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	set(&c.Postgres.URL, "POSTGRES_URL")
	set(&c.Bank.Path, "BANK_PATH")
	set(&c.Ledger.Backend, "LEDGER_BACKEND")
	set(&c.Ledger.SQLitePath, "SQLITE_PATH")
	set(&c.Log.Level, "LOG_LEVEL")
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case LedgerMemory:
	case LedgerSQLite:
		if c.Ledger.SQLitePath == "" {
			return errors.New("ledger.sqlitePath is required for the sqlite backend")
		}
	case LedgerRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis ledger backend")
		}
	case LedgerPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres.url is required for the postgres ledger backend")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	for name, raw := range map[string]string{
		"bank.ttl":             c.Bank.TTL,
		"session.tickInterval": c.Session.TickInterval,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
