package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/getmockd/bankmock/pkg/resource"
)

// Schema returns the DDL statements for every registered table, one
// CREATE TABLE followed by an index on the type discriminator.
func Schema() []string {
	var stmts []string
	for _, t := range resource.Tables() {
		cols := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, fmt.Sprintf("%s %s", c.Name, c.SQLType))
		}
		stmts = append(stmts,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(cols, ", ")),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_type ON %s (%s)", t.Name, t.Name, resource.ColumnType),
		)
	}
	return stmts
}

// Migrate creates any missing tables. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping reports whether the database answers a trivial query.
func Ping(ctx context.Context, db *sql.DB) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
