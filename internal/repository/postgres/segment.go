package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/domain"
)

// SegmentRepo stores segment definitions. Rules are kept as JSONB; the
// audienceSize column is the creation-time snapshot, never refreshed.
type SegmentRepo struct{ db *sql.DB }

// NewSegmentRepo creates a Postgres-backed segment repository.
func NewSegmentRepo(db *sql.DB) *SegmentRepo { return &SegmentRepo{db: db} }

func (r *SegmentRepo) CreateSegment(ctx context.Context, s *domain.Segment) (string, error) {
	rules, err := json.Marshal(s.Rules)
	if err != nil {
		return "", fmt.Errorf("marshal segment rules: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO segments (id, owner_id, name, rules, condition, audience_size, use_mock_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, s.ID, s.OwnerID, s.Name, rules, s.Condition, s.AudienceSize, s.UseMockData)
	if err != nil {
		return "", fmt.Errorf("create segment: %w", err)
	}
	return s.ID, nil
}

func (r *SegmentRepo) GetSegment(ctx context.Context, id string) (*domain.Segment, error) {
	s := &domain.Segment{}
	var rules []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, rules, condition, audience_size, use_mock_data, created_at
		FROM segments
		WHERE id = $1
	`, id).Scan(&s.ID, &s.OwnerID, &s.Name, &rules, &s.Condition, &s.AudienceSize, &s.UseMockData, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, delivery.ErrSegmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}

	if err := json.Unmarshal(rules, &s.Rules); err != nil {
		return nil, fmt.Errorf("decode segment rules: %w", err)
	}
	return s, nil
}
