package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/domain"
)

// CommunicationRepo implements delivery.CommunicationRepo against
// PostgreSQL. The outcome write is a compare-and-swap on QUEUED so
// concurrent or redelivered writers cannot flip a recorded outcome.
type CommunicationRepo struct{ db *sql.DB }

// NewCommunicationRepo creates a Postgres-backed communication log
// repository.
func NewCommunicationRepo(db *sql.DB) *CommunicationRepo { return &CommunicationRepo{db: db} }

func (r *CommunicationRepo) CreateLog(ctx context.Context, l *domain.CommunicationLog) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO communication_logs (id, campaign_id, customer_id, customer_name, log_type, message, status, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NOW())
	`, l.ID, l.CampaignID, l.CustomerID, l.CustomerName, l.LogType, l.Message, l.Status)
	if err != nil {
		return "", fmt.Errorf("create communication log: %w", err)
	}
	return l.ID, nil
}

func (r *CommunicationRepo) RecordOutcome(ctx context.Context, id string, status domain.DeliveryStatus, deliveredAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE communication_logs
		SET status = $2, delivered_at = $3
		WHERE id = $1 AND status = $4
	`, id, status, deliveredAt, domain.DeliveryQueued)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Nothing updated: either the row is gone or already terminal.
	var existing string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM communication_logs WHERE id = $1`, id).Scan(&existing)
	if err == sql.ErrNoRows {
		return delivery.ErrLogNotFound
	}
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return delivery.ErrAlreadyRecorded
}

func (r *CommunicationRepo) CampaignStats(ctx context.Context, campaignID string) (delivery.Stats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM communication_logs
		WHERE campaign_id = $1 AND customer_id IS NOT NULL
		GROUP BY status
	`, campaignID)
	if err != nil {
		return delivery.Stats{}, fmt.Errorf("campaign stats: %w", err)
	}
	defer rows.Close()

	var s delivery.Stats
	for rows.Next() {
		var status domain.DeliveryStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return delivery.Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		switch status {
		case domain.DeliveryQueued:
			s.Queued = n
		case domain.DeliverySent:
			s.Sent = n
		case domain.DeliveryFailed:
			s.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return delivery.Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return s, nil
}
