package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
)

func TestBuildConnectionString(t *testing.T) {
	dsn, err := buildConnectionString(&config.StorageConfig{
		Driver:   config.DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "jiale",
		Password: "pw",
		Name:     "clinic",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=jiale password=pw dbname=clinic sslmode=disable", dsn)

	dsn, err = buildConnectionString(&config.StorageConfig{Driver: config.DriverSQLite, Path: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "_journal_mode=WAL")

	_, err = buildConnectionString(&config.StorageConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}

func TestCreateSchema(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS collections").WillReturnResult(sqlmock.NewResult(0, 0))

	db := Wrap(sqlDB, config.DriverPostgres, logger.Discard())
	require.NoError(t, db.CreateSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	log := logger.Discard()
	db, err := NewConnection(&config.StorageConfig{
		Driver: config.DriverSQLite,
		Path:   t.TempDir() + "/clinic.db",
	}, log)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.CreateSchema(context.Background()))
	assert.NoError(t, db.Health())
	assert.Equal(t, config.DriverSQLite, db.Driver())
}
