package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.SubjectRoot != "gds.dumps" || cfg.QueueGroup != "gds-parser" {
		t.Errorf("subject/queue = %q/%q", cfg.SubjectRoot, cfg.QueueGroup)
	}
	if !cfg.StoreSQLite || cfg.StoreBackend {
		t.Errorf("store flags = %v/%v, want true/false", cfg.StoreSQLite, cfg.StoreBackend)
	}
	if cfg.StatsInterval != 10*time.Minute {
		t.Errorf("StatsInterval = %v, want 10m", cfg.StatsInterval)
	}

	// Unset storage vars fall through to the storage layer defaults.
	if cfg.Storage.ClickHouse.Host != "localhost" || cfg.Storage.ClickHouse.Port != 9000 {
		t.Errorf("clickhouse = %s:%d", cfg.Storage.ClickHouse.Host, cfg.Storage.ClickHouse.Port)
	}
	if cfg.Storage.Postgres.Database != "gds" || cfg.Storage.Postgres.User != "gds" {
		t.Errorf("postgres = %q/%q", cfg.Storage.Postgres.Database, cfg.Storage.Postgres.User)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("STORE_BACKEND", "true")
	t.Setenv("STATS_INTERVAL_SEC", "30")
	t.Setenv("POSTGRES_PORT", "15432")
	t.Setenv("CLICKHOUSE_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.NATSURL != "nats://broker:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if !cfg.StoreBackend {
		t.Error("StoreBackend = false, want true")
	}
	if cfg.StatsInterval != 30*time.Second {
		t.Errorf("StatsInterval = %v, want 30s", cfg.StatsInterval)
	}
	if cfg.Storage.Postgres.Port != 15432 {
		t.Errorf("postgres port = %d, want 15432", cfg.Storage.Postgres.Port)
	}
	// A malformed value keeps the default.
	if cfg.Storage.ClickHouse.Port != 9000 {
		t.Errorf("clickhouse port = %d, want 9000", cfg.Storage.ClickHouse.Port)
	}
}
