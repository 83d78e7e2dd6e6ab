package store

import (
	"context"
	"fmt"

	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/database"
	"github.com/YeyeJames/jiale15/pkg/interfaces"
	"github.com/YeyeJames/jiale15/pkg/logger"
)

// NewPersistence builds the backend selected by cfg.Driver. The returned DB
// is nil for the memory driver.
func NewPersistence(ctx context.Context, cfg *config.StorageConfig, log *logger.Logger) (interfaces.Persistence, *database.DB, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		return NewMemoryPersistence(), nil, nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.NewConnection(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to create schema: %w", err)
		}
		return NewSQLPersistence(db, log), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}
