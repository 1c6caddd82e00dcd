package store

import "fmt"

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

// DriverName returns "postgres" for the lib/pq driver.
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// Placeholder returns "$N" for the given position (PostgreSQL uses numbered placeholders).
func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// InitStatements returns no statements; PostgreSQL needs no per-connection setup.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

// TimestampType returns a timezone-aware timestamp column type.
func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMPTZ"
}
