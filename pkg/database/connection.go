package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection
type DB struct {
	*sql.DB
	driver string
	logger *logger.Logger
}

// NewConnection opens and pings a database for the configured SQL driver
func NewConnection(cfg *config.StorageConfig, log *logger.Logger) (*DB, error) {
	dsn, err := buildConnectionString(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; WAL lets readers proceed
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := Wrap(sqlDB, cfg.Driver, log)
	log.WithField("driver", cfg.Driver).Info("Database connection established successfully")
	return db, nil
}

// Wrap adopts an already opened *sql.DB
func Wrap(sqlDB *sql.DB, driver string, log *logger.Logger) *DB {
	return &DB{DB: sqlDB, driver: driver, logger: log}
}

// buildConnectionString constructs the driver specific DSN
func buildConnectionString(cfg *config.StorageConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		), nil
	case config.DriverSQLite:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", cfg.Path), nil
	default:
		return "", fmt.Errorf("unsupported SQL driver: %q", cfg.Driver)
	}
}

// Driver returns the name of the SQL driver in use
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
