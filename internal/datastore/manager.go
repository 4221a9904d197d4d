// Package datastore opens the relational databases used by the registry
// engine and owns the normalized schema.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// sqlitePragmas are appended to plain SQLite file paths.
const sqlitePragmas = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// Manager owns the connection to the normalized store.
type Manager struct {
	db     *gorm.DB
	driver string
	logger logger.Logger
}

// Dialector returns the GORM dialector for a driver name and DSN.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case conf.DriverSQLite:
		resolved, err := sqliteDSN(dsn)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(resolved), nil
	case conf.DriverMySQL:
		return mysql.Open(mysqlDSN(dsn)), nil
	case conf.DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, errors.Newf("unsupported database driver %q", driver).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// sqliteDSN creates the parent directory of a file database and adds the
// recommended pragmas unless the DSN already carries parameters.
func sqliteDSN(dsn string) (string, error) {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") {
		return dsn, nil
	}
	if dir := filepath.Dir(dsn); dir != "." {
		const dirPermissions = 0o750
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return dsn + "?" + sqlitePragmas, nil
}

// mysqlDSN makes sure DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// GormConfig returns the GORM configuration shared by both databases.
// Driver errors are translated so that unique violations surface as
// gorm.ErrDuplicatedKey.
func GormConfig(log logger.Logger, slowThreshold time.Duration) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, slowThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to the normalized store described by cfg.
func Open(cfg *conf.StoreSettings, log logger.Logger) (*Manager, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, GormConfig(log, cfg.SlowQueryThreshold))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch {
	case cfg.Driver == conf.DriverSQLite && cfg.DSN == ":memory:":
		// every connection would see its own empty database
		sqlDB.SetMaxOpenConns(1)
	case cfg.Driver != conf.DriverSQLite && cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &Manager{db: db, driver: cfg.Driver, logger: log}, nil
}

// NewManager wraps an already open connection. Used by tests and tools that
// share a database handle.
func NewManager(db *gorm.DB, driver string, log logger.Logger) *Manager {
	return &Manager{db: db, driver: driver, logger: log}
}

// Initialize creates or updates the normalized schema.
func (m *Manager) Initialize(ctx context.Context) error {
	start := time.Now()
	err := m.db.WithContext(ctx).AutoMigrate(
		&entities.Identity{},
		&entities.Shelter{},
		&entities.Volunteer{},
		&entities.Vacancy{},
		&entities.PopulationEvent{},
		&entities.MigrationLedger{},
	)
	if err != nil {
		return errors.New(fmt.Errorf("failed to migrate store schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Timing("auto_migrate", time.Since(start)).
			Build()
	}
	m.logger.Debug("store schema ready",
		logger.String("driver", m.driver),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// DB returns the underlying GORM database.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Driver returns the configured driver name.
func (m *Manager) Driver() string {
	return m.driver
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
