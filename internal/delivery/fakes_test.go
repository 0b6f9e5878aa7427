package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/stream"
)

// memComms is an in-memory CommunicationRepo enforcing the QUEUED
// compare-and-swap the Postgres implementation performs.
type memComms struct {
	mu   sync.Mutex
	rows map[string]*domain.CommunicationLog
}

func newMemComms() *memComms {
	return &memComms{rows: make(map[string]*domain.CommunicationLog)}
}

func (m *memComms) CreateLog(_ context.Context, l *domain.CommunicationLog) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	cp.CreatedAt = time.Now().UTC()
	m.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memComms) RecordOutcome(_ context.Context, id string, status domain.DeliveryStatus, deliveredAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return ErrLogNotFound
	}
	if row.Status != domain.DeliveryQueued {
		return ErrAlreadyRecorded
	}
	row.Status = status
	row.DeliveredAt = deliveredAt
	return nil
}

func (m *memComms) CampaignStats(_ context.Context, campaignID string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Stats
	for _, row := range m.rows {
		if row.CampaignID != campaignID || row.IsMaster() {
			continue
		}
		switch row.Status {
		case domain.DeliveryQueued:
			s.Queued++
		case domain.DeliverySent:
			s.Sent++
		case domain.DeliveryFailed:
			s.Failed++
		}
	}
	return s, nil
}

func (m *memComms) masterRows(campaignID string) []*domain.CommunicationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.CommunicationLog
	for _, row := range m.rows {
		if row.CampaignID == campaignID && row.IsMaster() {
			out = append(out, row)
		}
	}
	return out
}

type memCampaigns struct {
	mu   sync.Mutex
	rows map[string]*domain.Campaign
}

func newMemCampaigns() *memCampaigns {
	return &memCampaigns{rows: make(map[string]*domain.Campaign)}
}

func (m *memCampaigns) CreateCampaign(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.rows[cp.ID] = &cp
	return cp.ID, nil
}

type memSegments struct {
	segments map[string]*domain.Segment
	audience map[string][]domain.Customer
}

func newMemSegments() *memSegments {
	return &memSegments{
		segments: make(map[string]*domain.Segment),
		audience: make(map[string][]domain.Customer),
	}
}

func (m *memSegments) GetSegment(_ context.Context, id string) (*domain.Segment, error) {
	seg, ok := m.segments[id]
	if !ok {
		return nil, ErrSegmentNotFound
	}
	return seg, nil
}

func (m *memSegments) ResolveAudience(_ context.Context, segmentID string) ([]domain.Customer, error) {
	return m.audience[segmentID], nil
}

func (m *memSegments) add(seg *domain.Segment, audience []domain.Customer) {
	m.segments[seg.ID] = seg
	m.audience[seg.ID] = audience
}

func makeAudience(n int) []domain.Customer {
	out := make([]domain.Customer, n)
	for i := range out {
		out[i] = domain.Customer{
			ID:    fmt.Sprintf("cust-%d", i),
			Name:  fmt.Sprintf("Customer %d", i),
			Email: fmt.Sprintf("c%d@example.com", i),
		}
	}
	return out
}

// flakyLog wraps a Log and fails individual appends on demand, to
// exercise the per-customer fallback path.
type flakyLog struct {
	stream.Log
	failAppend bool
}

func (f *flakyLog) Append(ctx context.Context, streamName string, values map[string]interface{}) (string, error) {
	if f.failAppend {
		return "", fmt.Errorf("append rejected")
	}
	return f.Log.Append(ctx, streamName, values)
}
