package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the slot table. Both supported drivers accept the
// same DDL.
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	statements := []string{
		createCollectionsTable,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// Each row holds one whole entity collection as a JSON array
const createCollectionsTable = `
CREATE TABLE IF NOT EXISTS collections (
    slot VARCHAR(32) PRIMARY KEY,
    payload TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`
