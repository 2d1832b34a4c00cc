// Package config loads runtime settings from the environment. Values
// are read once at startup and treated as immutable; command-line
// flags may override them in main.
package config

import (
	"fmt"
	"os"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite3"
	BackendPostgres = "postgres"
	BackendMemory   = "mem"
)

type Config struct {
	// StoreBackend selects persistence: file, sqlite3, postgres or mem.
	StoreBackend string
	// DataDir holds the JSON files of the file backend.
	DataDir string
	// SQLitePath is the database file of the sqlite3 backend.
	SQLitePath string
	// PostgresDSN is the connection string of the postgres backend.
	PostgresDSN string
}

func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend: envOr("TERMCHAT_STORE", BackendFile),
		DataDir:      envOr("TERMCHAT_DATA_DIR", "data"),
		SQLitePath:   envOr("TERMCHAT_SQLITE_PATH", "termchat.db"),
		PostgresDSN:  os.Getenv("TERMCHAT_POSTGRES_DSN"),
	}

	switch cfg.StoreBackend {
	case BackendFile, BackendSQLite, BackendPostgres, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == BackendPostgres && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("TERMCHAT_POSTGRES_DSN is required for the postgres backend")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
