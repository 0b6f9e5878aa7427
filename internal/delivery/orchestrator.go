package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/pkg/logger"
	"github.com/ignite/crm-pipeline/internal/stream"
)

// DispatchInput describes one campaign delivery run.
type DispatchInput struct {
	SegmentID string `json:"segment_id"`
	Message   string `json:"message"`
	ImageRef  string `json:"image_ref"`
}

// DispatchSummary is what the caller gets back from a fire-and-forget
// dispatch. Outcomes arrive asynchronously unless the run degraded to
// the synchronous path.
type DispatchSummary struct {
	CampaignID   string `json:"campaign_id"`
	MasterLogID  string `json:"master_log_id"`
	AudienceSize int    `json:"audience_size"`
	LogsCreated  int    `json:"logs_created"`
	StreamBacked bool   `json:"stream_backed"`
}

// SyncSummary is the result of a fully-synchronous run, used when the
// caller wants sent/failed counts immediately.
type SyncSummary struct {
	CampaignID  string `json:"campaign_id"`
	MasterLogID string `json:"master_log_id"`
	Sent        int    `json:"sent"`
	Failed      int    `json:"failed"`
}

// masterSnapshot is the audit payload serialized into the MASTER_LOG
// row. It captures the dispatch parameters, not any delivery outcome.
type masterSnapshot struct {
	Message      string    `json:"message"`
	SegmentName  string    `json:"segment_name"`
	AudienceSize int       `json:"audience_size"`
	UseMockData  bool      `json:"use_mock_data"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// Orchestrator expands a segment into per-customer delivery records and
// dispatches them over the stream or, when the broker is unreachable,
// synchronously in-process.
type Orchestrator struct {
	log       stream.Log
	comms     CommunicationRepo
	campaigns CampaignRepo
	segments  SegmentStore
	resolver  AudienceResolver
	recorder  *Recorder
	renderer  *Renderer
}

// NewOrchestrator wires the orchestrator. All dependencies are required.
func NewOrchestrator(l stream.Log, comms CommunicationRepo, campaigns CampaignRepo, segments SegmentStore, resolver AudienceResolver, recorder *Recorder) *Orchestrator {
	return &Orchestrator{
		log:       l,
		comms:     comms,
		campaigns: campaigns,
		segments:  segments,
		resolver:  resolver,
		recorder:  recorder,
		renderer:  NewRenderer(),
	}
}

// Dispatch runs one campaign delivery. The dispatch path is chosen once
// per run; an individual push failure after a healthy connection falls
// back to synchronous simulation for that customer only.
func (o *Orchestrator) Dispatch(ctx context.Context, in DispatchInput) (*DispatchSummary, error) {
	seg, audience, err := o.resolve(ctx, in.SegmentID)
	if err != nil {
		return nil, err
	}

	campaignID, err := o.campaigns.CreateCampaign(ctx, &domain.Campaign{
		ID:        uuid.New().String(),
		SegmentID: seg.ID,
		Message:   in.Message,
		ImageRef:  in.ImageRef,
	})
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	masterID, err := o.writeMasterLog(ctx, campaignID, seg, in.Message, len(audience))
	if err != nil {
		return nil, err
	}

	// Path selection happens once per run. The broker is a soft
	// dependency: if it is down, every outcome is simulated in-process.
	streamBacked := o.log.Ping(ctx) == nil
	campaignStream := stream.CampaignStream(campaignID)
	if streamBacked {
		// Start the group at the beginning so tasks pushed before the
		// delivery consumer discovers this stream are not lost.
		if err := o.log.CreateGroup(ctx, campaignStream, stream.GroupDelivery, stream.StartBeginning); err != nil {
			log.Printf("[Orchestrator] create group failed, degrading to sync delivery: %v", err)
			streamBacked = false
		}
	} else {
		log.Printf("[Orchestrator] log store unreachable, delivering campaign %s synchronously", campaignID)
	}

	summary := &DispatchSummary{
		CampaignID:   campaignID,
		MasterLogID:  masterID,
		AudienceSize: len(audience),
		StreamBacked: streamBacked,
	}

	for _, cust := range audience {
		logID, message, err := o.createQueuedLog(ctx, campaignID, in.Message, cust)
		if err != nil {
			// One customer's failure never aborts the run.
			log.Printf("[Orchestrator] create log failed (campaign=%s customer=%s): %v", campaignID, cust.ID, err)
			continue
		}
		summary.LogsCreated++

		if streamBacked {
			task := stream.DeliveryTask{
				LogID:         logID,
				CampaignID:    campaignID,
				SegmentName:   seg.Name,
				CustomerID:    cust.ID,
				CustomerName:  cust.Name,
				CustomerEmail: cust.Email,
				Message:       message,
				ImageRef:      in.ImageRef,
				IsMock:        cust.IsMockData,
			}
			if _, err := o.log.Append(ctx, campaignStream, stream.Encode(task)); err == nil {
				continue
			} else {
				log.Printf("[Orchestrator] push failed (campaign=%s customer=%s), simulating inline: %v", campaignID, cust.ID, err)
			}
		}

		if _, err := o.recorder.Record(ctx, logID); err != nil && !errors.Is(err, ErrAlreadyRecorded) {
			log.Printf("[Orchestrator] outcome write failed (log=%s): %v", logID, err)
		}
	}

	logger.Info("campaign dispatched",
		"campaign_id", campaignID,
		"segment", seg.Name,
		"audience", len(audience),
		"logs_created", summary.LogsCreated,
		"stream_backed", streamBacked)
	return summary, nil
}

// DeliverNow runs a campaign fully synchronously regardless of broker
// health and returns the outcome counts.
func (o *Orchestrator) DeliverNow(ctx context.Context, in DispatchInput) (*SyncSummary, error) {
	seg, audience, err := o.resolve(ctx, in.SegmentID)
	if err != nil {
		return nil, err
	}

	campaignID, err := o.campaigns.CreateCampaign(ctx, &domain.Campaign{
		ID:        uuid.New().String(),
		SegmentID: seg.ID,
		Message:   in.Message,
		ImageRef:  in.ImageRef,
	})
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	masterID, err := o.writeMasterLog(ctx, campaignID, seg, in.Message, len(audience))
	if err != nil {
		return nil, err
	}

	out := &SyncSummary{CampaignID: campaignID, MasterLogID: masterID}
	for _, cust := range audience {
		logID, _, err := o.createQueuedLog(ctx, campaignID, in.Message, cust)
		if err != nil {
			log.Printf("[Orchestrator] create log failed (campaign=%s customer=%s): %v", campaignID, cust.ID, err)
			continue
		}
		status, err := o.recorder.Record(ctx, logID)
		if err != nil {
			log.Printf("[Orchestrator] outcome write failed (log=%s): %v", logID, err)
			continue
		}
		if status == domain.DeliverySent {
			out.Sent++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

func (o *Orchestrator) resolve(ctx context.Context, segmentID string) (*domain.Segment, []domain.Customer, error) {
	seg, err := o.segments.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, nil, err
	}
	audience, err := o.resolver.ResolveAudience(ctx, segmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve audience for segment %s: %w", segmentID, err)
	}
	return seg, audience, nil
}

// writeMasterLog creates the one audit row per run. Its Message holds
// the serialized dispatch snapshot; CustomerID stays nil.
func (o *Orchestrator) writeMasterLog(ctx context.Context, campaignID string, seg *domain.Segment, message string, audienceSize int) (string, error) {
	snapshot, err := json.Marshal(masterSnapshot{
		Message:      message,
		SegmentName:  seg.Name,
		AudienceSize: audienceSize,
		UseMockData:  seg.UseMockData,
		DispatchedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal master snapshot: %w", err)
	}

	id, err := o.comms.CreateLog(ctx, &domain.CommunicationLog{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		LogType:    domain.MasterLogType,
		Message:    string(snapshot),
		Status:     domain.DeliveryQueued,
	})
	if err != nil {
		return "", fmt.Errorf("create master log: %w", err)
	}
	return id, nil
}

func (o *Orchestrator) createQueuedLog(ctx context.Context, campaignID, message string, cust domain.Customer) (string, string, error) {
	rendered := o.renderer.Render(message, cust)
	custID := cust.ID
	id, err := o.comms.CreateLog(ctx, &domain.CommunicationLog{
		ID:           uuid.New().String(),
		CampaignID:   campaignID,
		CustomerID:   &custID,
		CustomerName: cust.Name,
		Message:      rendered,
		Status:       domain.DeliveryQueued,
	})
	if err != nil {
		return "", "", err
	}
	return id, rendered, nil
}
