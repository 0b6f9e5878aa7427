package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/crm-pipeline/internal/domain"
)

// CampaignRepo implements delivery.CampaignRepo against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, segment_id, message, image_ref, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, c.ID, c.SegmentID, c.Message, c.ImageRef)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}
