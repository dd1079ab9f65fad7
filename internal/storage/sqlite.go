package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"ouvidoria/backend/internal/models"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS complaints (
		protocol      TEXT PRIMARY KEY,
		filer_name    TEXT NOT NULL,
		national_id   TEXT NOT NULL,
		enrollment_id TEXT NOT NULL,
		category      TEXT NOT NULL,
		description   TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		status        TEXT NOT NULL,
		response      TEXT,
		responded_at  INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_national_id ON complaints (national_id)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_enrollment_id ON complaints (enrollment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at)`,
}

const sqliteColumns = `protocol, filer_name, national_id, enrollment_id, category, description, created_at, status, response, responded_at`

// SQLiteStore persists complaints in an embedded SQLite database. Writes run in
// a transaction under a process-wide mutex; timestamps are stored as Unix
// nanoseconds so ordering is a plain integer comparison.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "complaints.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create complaints schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, c *models.Complaint) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append %s: begin: %w", c.Protocol, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM complaints WHERE protocol = ?`, c.Protocol).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("append %s: %w", c.Protocol, ErrDuplicateProtocol)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("append %s: %w", c.Protocol, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO complaints (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Protocol, c.FilerName, c.NationalID, c.EnrollmentID, c.Category, c.Description,
		c.CreatedAt.UnixNano(), string(c.Status), nullString(c.Response), nullTime(c.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("append %s: insert: %w", c.Protocol, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append %s: commit: %w", c.Protocol, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, protocol string) (*models.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM complaints WHERE protocol = ?`, protocol)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", protocol, err)
	}
	out, err := scanComplaints(rows)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", protocol, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (s *SQLiteStore) FindByNationalID(ctx context.Context, nationalID string) ([]models.Complaint, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM complaints WHERE national_id = ? ORDER BY created_at ASC, rowid ASC`, nationalID)
}

func (s *SQLiteStore) FindByEnrollmentID(ctx context.Context, enrollmentID string) ([]models.Complaint, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM complaints WHERE enrollment_id = ? ORDER BY created_at ASC, rowid ASC`, enrollmentID)
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Complaint, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM complaints ORDER BY created_at DESC, rowid DESC`)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]models.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	return scanComplaints(rows)
}

func (s *SQLiteStore) UpdateResponse(ctx context.Context, protocol, response string, at time.Time) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update %s: begin: %w", protocol, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE complaints SET response = ?, status = ?, responded_at = ? WHERE protocol = ?`,
		response, string(models.StatusResponded), at.UTC().UnixNano(), protocol,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", protocol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", protocol, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", protocol, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update %s: commit: %w", protocol, err)
	}
	return nil
}

func scanComplaints(rows *sql.Rows) ([]models.Complaint, error) {
	defer func() { _ = rows.Close() }()

	out := make([]models.Complaint, 0)
	for rows.Next() {
		var (
			c           models.Complaint
			status      string
			createdAt   int64
			response    sql.NullString
			respondedAt sql.NullInt64
		)
		if err := rows.Scan(&c.Protocol, &c.FilerName, &c.NationalID, &c.EnrollmentID,
			&c.Category, &c.Description, &createdAt, &status, &response, &respondedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c.CreatedAt = time.Unix(0, createdAt).UTC()
		c.Status = models.Status(status)
		if response.Valid {
			v := response.String
			c.Response = &v
		}
		if respondedAt.Valid {
			ts := time.Unix(0, respondedAt.Int64).UTC()
			c.RespondedAt = &ts
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixNano(), Valid: true}
}
