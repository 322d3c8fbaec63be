package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migrate applies all pending schema migrations from the given directory.
// A missing directory is treated as "nothing to do" so packaged deployments
// can run against an externally managed schema.
func Migrate(db *sqlx.DB, dir, dbName string, logr *zap.Logger) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		logr.Warn("migrations directory not found, skipping", zap.String("dir", dir))
		return nil
	}

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, dbName, driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logr.Info("schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logr.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
