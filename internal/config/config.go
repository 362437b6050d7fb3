// Package config loads runtime configuration for the ingest daemon from the
// environment, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gds_parser/internal/storage"
)

type Config struct {
	NATSURL       string
	SubjectRoot   string
	QueueGroup    string
	ArchivePath   string
	StoreSQLite   bool
	StoreBackend  bool
	StatsInterval time.Duration

	Storage storage.Config
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; real environment variables win.
// Storage settings fall back to the storage layer's local defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	def := storage.DefaultConfig()
	cfg := Config{
		NATSURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		SubjectRoot:   getEnv("NATS_SUBJECT_ROOT", "gds.dumps"),
		QueueGroup:    getEnv("NATS_QUEUE_GROUP", "gds-parser"),
		ArchivePath:   getEnv("ARCHIVE_PATH", "gds_dumps.db"),
		StoreSQLite:   getEnvBool("STORE_SQLITE", true),
		StoreBackend:  getEnvBool("STORE_BACKEND", false),
		StatsInterval: time.Duration(getEnvInt("STATS_INTERVAL_SEC", 600)) * time.Second,

		Storage: storage.Config{
			ClickHouse: storage.ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", def.ClickHouse.Host),
				Port:     getEnvInt("CLICKHOUSE_PORT", def.ClickHouse.Port),
				Database: getEnv("CLICKHOUSE_DATABASE", def.ClickHouse.Database),
				User:     getEnv("CLICKHOUSE_USER", def.ClickHouse.User),
				Password: getEnv("CLICKHOUSE_PASSWORD", def.ClickHouse.Password),
			},
			Postgres: storage.PostgresConfig{
				Host:     getEnv("POSTGRES_HOST", def.Postgres.Host),
				Port:     getEnvInt("POSTGRES_PORT", def.Postgres.Port),
				Database: getEnv("POSTGRES_DATABASE", def.Postgres.Database),
				User:     getEnv("POSTGRES_USER", def.Postgres.User),
				Password: getEnv("POSTGRES_PASSWORD", def.Postgres.Password),
			},
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
