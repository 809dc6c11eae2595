// Package migration runs versioned schema migrations with goose. The SQL
// scripts are embedded so deployments cannot drift from the binary.
package migration

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"threadmind/internal/shared/logger"
)

//go:embed scripts/*.sql
var scripts embed.FS

// Runner applies the embedded migrations against the configured database.
type Runner struct {
	dialect string
	logger  logger.Interface
}

// NewRunner builds a runner for the given database driver name as used in
// the database config (sqlite or mysql).
func NewRunner(driver string, log logger.Interface) (*Runner, error) {
	dialect := driver
	if driver == "sqlite" {
		dialect = "sqlite3"
	}
	if dialect != "sqlite3" && dialect != "mysql" {
		return nil, fmt.Errorf("unsupported migration dialect: %s", driver)
	}
	return &Runner{dialect: dialect, logger: log}, nil
}

// Up applies all pending migrations.
func (r *Runner) Up(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to unwrap sql.DB: %w", err)
	}
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect(r.dialect); err != nil {
		return err
	}
	if err := goose.Up(sqlDB, "scripts"); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	r.logger.Infow("migrations applied")
	return nil
}

// Down rolls back the given number of migrations.
func (r *Runner) Down(db *gorm.DB, steps int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to unwrap sql.DB: %w", err)
	}
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect(r.dialect); err != nil {
		return err
	}
	for n := 0; n < steps; n++ {
		if err := goose.Down(sqlDB, "scripts"); err != nil {
			return fmt.Errorf("migration down failed at step %d: %w", n+1, err)
		}
	}
	r.logger.Infow("migrations rolled back", "steps", steps)
	return nil
}

// Version returns the currently applied migration version.
func (r *Runner) Version(db *gorm.DB) (int64, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to unwrap sql.DB: %w", err)
	}
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect(r.dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(sqlDB)
}

// Status prints the per-migration status table to stdout.
func (r *Runner) Status(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to unwrap sql.DB: %w", err)
	}
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect(r.dialect); err != nil {
		return err
	}
	return goose.Status(sqlDB, "scripts")
}
