package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// AdminStore carries the administrative operations used by the reset
// tool. Not part of the steady-state request path.
type AdminStore struct{ db *sql.DB }

// NewAdminStore creates an admin store.
func NewAdminStore(db *sql.DB) *AdminStore { return &AdminStore{db: db} }

// TruncateAll empties every collection, leaving the schema equivalent
// to fresh startup.
func (s *AdminStore) TruncateAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		TRUNCATE communication_logs, campaigns, segments, orders, customers CASCADE
	`)
	if err != nil {
		return fmt.Errorf("truncate collections: %w", err)
	}
	return nil
}
