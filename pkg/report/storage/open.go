package storage

import (
	"fmt"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/report"
)

// Open creates the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (report.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		return NewSQLiteStorage(&SQLiteConfig{
			Path:        cfg.SQLite.Path,
			Driver:      cfg.SQLite.Driver,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, report.NewStorageError(cfg.Backend, "open", fmt.Errorf("unsupported backend %q", cfg.Backend))
	}
}
