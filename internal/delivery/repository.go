package delivery

import (
	"context"
	"time"

	"github.com/ignite/crm-pipeline/internal/domain"
)

// CommunicationRepo is the data access contract for delivery records.
// Implementations must be safe for concurrent use.
type CommunicationRepo interface {
	// CreateLog inserts a delivery record and returns its ID.
	CreateLog(ctx context.Context, l *domain.CommunicationLog) (string, error)

	// RecordOutcome transitions a row from QUEUED to the given terminal
	// status, setting deliveredAt when provided. Returns
	// ErrAlreadyRecorded if the row is not in QUEUED state and
	// ErrLogNotFound if it does not exist.
	RecordOutcome(ctx context.Context, id string, status domain.DeliveryStatus, deliveredAt *time.Time) error

	// CampaignStats returns the per-status row counts for a campaign,
	// excluding the master row.
	CampaignStats(ctx context.Context, campaignID string) (Stats, error)
}

// CampaignRepo persists campaigns.
type CampaignRepo interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error)
}

// SegmentStore loads segment definitions. Returns ErrSegmentNotFound
// for unknown ids.
type SegmentStore interface {
	GetSegment(ctx context.Context, id string) (*domain.Segment, error)
}

// AudienceResolver evaluates a segment's predicate against the customer
// base. The resolver already applies the segment's mock-data inclusion
// policy.
type AudienceResolver interface {
	ResolveAudience(ctx context.Context, segmentID string) ([]domain.Customer, error)
}

// Stats is the delivery outcome breakdown for one campaign.
type Stats struct {
	Queued int `json:"queued"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Total returns the number of per-customer delivery rows.
func (s Stats) Total() int { return s.Queued + s.Sent + s.Failed }
