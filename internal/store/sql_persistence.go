package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/YeyeJames/jiale15/pkg/database"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// SQLPersistence stores one row per slot in the collections table. The same
// statements run on PostgreSQL and SQLite.
type SQLPersistence struct {
	db     *database.DB
	logger *logger.Logger
}

// NewSQLPersistence creates a SQL-backed slot store
func NewSQLPersistence(db *database.DB, log *logger.Logger) *SQLPersistence {
	return &SQLPersistence{db: db, logger: log}
}

// Load reads one slot
func (p *SQLPersistence) Load(ctx context.Context, slot types.Slot) ([]byte, bool, error) {
	query := `SELECT payload FROM collections WHERE slot = $1`

	var payload string
	err := p.db.QueryRowContext(ctx, query, string(slot)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load slot %s: %w", slot, err)
	}

	return []byte(payload), true, nil
}

// SaveAll upserts every given slot in a single transaction
func (p *SQLPersistence) SaveAll(ctx context.Context, payloads map[types.Slot][]byte) error {
	query := `
		INSERT INTO collections (slot, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	slots := make([]string, 0, len(payloads))
	for slot := range payloads {
		slots = append(slots, string(slot))
	}
	sort.Strings(slots)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, slot := range slots {
		if _, err := tx.ExecContext(ctx, query, slot, string(payloads[types.Slot(slot)]), now); err != nil {
			return fmt.Errorf("failed to save slot %s: %w", slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Health pings the database
func (p *SQLPersistence) Health() error {
	return p.db.Health()
}

// Close closes the database connection
func (p *SQLPersistence) Close() error {
	return p.db.Close()
}
