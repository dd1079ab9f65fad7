package eligibility

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresTable checks eligibility against the eligible_enrollments table.
type PostgresTable struct {
	db *sql.DB
}

// OpenPostgres opens a lib/pq connection pool to dsn.
func OpenPostgres(dsn string) (*PostgresTable, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open eligibility database: %w", err)
	}
	return NewPostgresTable(db), nil
}

// NewPostgresTable wraps an existing handle.
func NewPostgresTable(db *sql.DB) *PostgresTable {
	return &PostgresTable{db: db}
}

func (p *PostgresTable) IsEligible(ctx context.Context, enrollmentID string) (bool, error) {
	var ok bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM eligible_enrollments WHERE enrollment_id = $1)`,
		enrollmentID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("postgres eligibility check: %w", err)
	}
	return ok, nil
}

// Close releases the pool.
func (p *PostgresTable) Close() error {
	return p.db.Close()
}
