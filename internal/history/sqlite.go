package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite via modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-backed store.
// dbPath is the path to the SQLite database file; use ":memory:" for testing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping database: %w", err)
	}

	// seq preserves insertion order for eviction independently of timestamps.
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS scans (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			task_id     TEXT NOT NULL,
			url         TEXT NOT NULL,
			scan_type   TEXT NOT NULL DEFAULT 'basic',
			status      TEXT NOT NULL,
			risk_level  TEXT DEFAULT '',
			risk_score  REAL DEFAULT 0,
			created_at  DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add inserts a record and evicts the oldest rows beyond MaxRecords.
// If the record's ID is empty, a new UUID is generated and assigned.
func (s *SQLiteStore) Add(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	insertSQL := `
		INSERT INTO scans (id, task_id, url, scan_type, status, risk_level, risk_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, insertSQL,
		rec.ID,
		rec.TaskID,
		rec.URL,
		rec.ScanType,
		rec.Status,
		rec.RiskLevel,
		rec.RiskScore,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: insert record: %w", err)
	}

	evictSQL := `
		DELETE FROM scans WHERE seq NOT IN (
			SELECT seq FROM scans ORDER BY seq DESC LIMIT ?
		)
	`
	if _, err := s.db.ExecContext(ctx, evictSQL, MaxRecords); err != nil {
		return fmt.Errorf("history: evict old records: %w", err)
	}

	return nil
}

// List returns records newest-first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	if limit <= 0 {
		limit = MaxRecords
	}

	query := `
		SELECT id, task_id, url, scan_type, status, risk_level, risk_score, created_at
		FROM scans ORDER BY seq DESC LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("history: list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.URL, &rec.ScanType, &rec.Status,
			&rec.RiskLevel, &rec.RiskScore, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			rec.CreatedAt = t
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}

	return records, nil
}

// Delete removes one record by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("history: delete record: %w", err)
	}
	return nil
}

// Clear removes all records.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans`); err != nil {
		return fmt.Errorf("history: clear records: %w", err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count records: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
