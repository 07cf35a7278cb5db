// Package history keeps a small local cache of recent scans so results stay
// browsable offline. It is a bounded cache, not a source of truth: the
// backend's /user/history endpoint remains authoritative.
package history

import (
	"context"
	"time"
)

// Record is one cached scan outcome.
type Record struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	URL       string    `json:"url"`
	ScanType  string    `json:"scan_type"`
	Status    string    `json:"status"`
	RiskLevel string    `json:"risk_level,omitempty"`
	RiskScore float64   `json:"risk_score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxRecords caps the cache: on insert, the oldest entries beyond this bound
// are evicted in insertion order (not LRU-by-access).
const MaxRecords = 100

// Store persists and retrieves cached scan records.
type Store interface {
	Add(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit, offset int) ([]*Record, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close() error
}
