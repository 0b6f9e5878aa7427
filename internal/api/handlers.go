// Package api exposes the HTTP boundary: thin chi handlers that
// delegate to the ingestion producer, the delivery orchestrator and
// the segment evaluator. Handlers never touch Redis or Postgres
// directly.
package api

import (
	"context"
	"database/sql"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/ingest"
	"github.com/ignite/crm-pipeline/internal/stream"
)

// Ingestor accepts validated payloads and appends them to the log.
type Ingestor interface {
	IngestCustomer(ctx context.Context, in ingest.CustomerInput) (string, error)
	IngestOrder(ctx context.Context, in ingest.OrderInput) (string, error)
}

// Dispatcher runs campaign delivery, stream-backed or synchronous.
type Dispatcher interface {
	Dispatch(ctx context.Context, in delivery.DispatchInput) (*delivery.DispatchSummary, error)
	DeliverNow(ctx context.Context, in delivery.DispatchInput) (*delivery.SyncSummary, error)
}

// StatsSource reports per-campaign outcome counts.
type StatsSource interface {
	CampaignStats(ctx context.Context, campaignID string) (delivery.Stats, error)
}

// SegmentWriter persists and loads segment definitions.
type SegmentWriter interface {
	CreateSegment(ctx context.Context, s *domain.Segment) (string, error)
	GetSegment(ctx context.Context, id string) (*domain.Segment, error)
}

// AudienceCounter sizes an audience without materializing it.
type AudienceCounter interface {
	CountAudience(ctx context.Context, rules []domain.SegmentRule, condition domain.RuleCondition, includeMock bool) (int, error)
}

// ContentGenerator produces AI campaign copy and imagery. Optional;
// nil disables the /api/content endpoints.
type ContentGenerator interface {
	SuggestMessage(ctx context.Context, audience, goal string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Handlers bundles the dependencies of all API endpoints.
type Handlers struct {
	producer     Ingestor
	orchestrator Dispatcher
	stats        StatsSource
	segments     SegmentWriter
	counter      AudienceCounter
	content      ContentGenerator

	// health probes; either may be nil
	db  *sql.DB
	log stream.Log
}

// NewHandlers creates the handler set. content may be nil when AI
// generation is not configured.
func NewHandlers(
	producer Ingestor,
	orchestrator Dispatcher,
	stats StatsSource,
	segments SegmentWriter,
	counter AudienceCounter,
	content ContentGenerator,
	db *sql.DB,
	log stream.Log,
) *Handlers {
	return &Handlers{
		producer:     producer,
		orchestrator: orchestrator,
		stats:        stats,
		segments:     segments,
		counter:      counter,
		content:      content,
		db:           db,
		log:          log,
	}
}
