package storage

import (
	"fmt"
	"log/slog"

	"diabetes-console/internal/config"
)

// Open builds the Store selected by cfg.Storage.
func Open(cfg config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return NewMemoryStore(cfg.StorageMaxRows), nil
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.StoragePath, cfg.StorageMaxRows, logger)
	case config.StorageFile:
		return NewFileStore(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage)
	}
}
