// Package migrate wraps goose for schema management. SQL migration files live
// under DefaultDir and follow goose's YYYYMMDDHHMMSS_name.sql convention.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Run executes a goose command against the given connection. Status output
// goes to stdout, which is what the migrate CLI wants.
func Run(ctx context.Context, conn *sql.DB, dir string, command string, args ...string) error {
	if conn == nil {
		return fmt.Errorf("db connection is required")
	}
	if dir == "" {
		return fmt.Errorf("migrations dir is required")
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, conn, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema to an exact version, stepping up or down
// from wherever the database currently sits.
func MigrateToVersion(ctx context.Context, conn *sql.DB, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("target version is required")
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersion(conn)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, conn, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, conn, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
