package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Ledger records which notifications have already been sent to a chat. It
// closes the duplicate window left open when the backend mark-delivered call
// fails after a successful send.
type Ledger interface {
	// Seen reports whether a send was already recorded for the notification.
	Seen(ctx context.Context, id string) (bool, error)
	// Record stores the fact of a successful send. Recording twice is a no-op.
	Record(ctx context.Context, id string) error
}

// MemoryLedger is the fallback when no database is configured. It protects
// against duplicates only within the process lifetime.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]struct{})}
}

// Seen implements Ledger.
func (l *MemoryLedger) Seen(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok, nil
}

// Record implements Ledger.
func (l *MemoryLedger) Record(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[id] = struct{}{}
	return nil
}

// DBLedger persists sends in Postgres so restarts do not reopen the
// duplicate window.
type DBLedger struct {
	db *sqlx.DB
}

// NewDBLedger wraps an open database handle.
func NewDBLedger(db *sqlx.DB) *DBLedger {
	return &DBLedger{db: db}
}

// Seen implements Ledger.
func (l *DBLedger) Seen(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := l.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM delivered_notifications WHERE notification_id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("ledger: seen %s: %w", id, err)
	}
	return exists, nil
}

// Record implements Ledger.
func (l *DBLedger) Record(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO delivered_notifications (notification_id) VALUES ($1)
		 ON CONFLICT (notification_id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("ledger: record %s: %w", id, err)
	}
	return nil
}
