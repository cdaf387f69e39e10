package data

import (
	"context"
	"fmt"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/config"
)

// Open builds the storage backend named by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.StorageFirestore:
		return NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreDatabaseID)
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageDriver, cfg.StorageDriver)
}
