package domain

import "time"

// Campaign is a single delivery run against a segment. A campaign is
// created once per dispatch and never reused.
type Campaign struct {
	ID        string    `json:"id" db:"id"`
	SegmentID string    `json:"segment_id" db:"segment_id"`
	Message   string    `json:"message" db:"message"`
	ImageRef  string    `json:"image_ref" db:"image_ref"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DeliveryStatus enumerates the states of a per-customer delivery record.
type DeliveryStatus string

const (
	DeliveryQueued DeliveryStatus = "QUEUED"
	DeliverySent   DeliveryStatus = "SENT"
	DeliveryFailed DeliveryStatus = "FAILED"
)

// MasterLogType marks the one audit row written per campaign run.
const MasterLogType = "MASTER_LOG"

// CommunicationLog is one delivery attempt for one customer, or the
// per-campaign MASTER_LOG audit row (CustomerID nil, LogType set).
// A row is mutated exactly once after creation: status and deliveredAt
// are set when the outcome is recorded.
type CommunicationLog struct {
	ID           string         `json:"id" db:"id"`
	CampaignID   string         `json:"campaign_id" db:"campaign_id"`
	CustomerID   *string        `json:"customer_id" db:"customer_id"`
	CustomerName string         `json:"customer_name" db:"customer_name"`
	LogType      string         `json:"log_type,omitempty" db:"log_type"`
	Message      string         `json:"message" db:"message"`
	Status       DeliveryStatus `json:"status" db:"status"`
	DeliveredAt  *time.Time     `json:"delivered_at" db:"delivered_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// IsMaster reports whether the row is the campaign's audit anchor.
func (l *CommunicationLog) IsMaster() bool {
	return l.LogType == MasterLogType
}

// IsTerminal reports whether the delivery outcome has been recorded.
func (l *CommunicationLog) IsTerminal() bool {
	return l.Status == DeliverySent || l.Status == DeliveryFailed
}
