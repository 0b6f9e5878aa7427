package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/pkg/httputil"
)

// CreateSegmentRequest is the request body for creating a segment.
type CreateSegmentRequest struct {
	Name        string               `json:"name"`
	OwnerID     string               `json:"owner_id"`
	Rules       []domain.SegmentRule `json:"rules"`
	Condition   domain.RuleCondition `json:"condition"`
	UseMockData bool                 `json:"use_mock_data"`
}

// CreateSegment stores a segment definition. The audience size is
// counted once at creation and stored as a snapshot.
//
//	POST /api/segments
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var req CreateSegmentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	if len(req.Rules) == 0 {
		httputil.BadRequest(w, "at least one rule is required")
		return
	}
	if req.Condition == "" {
		req.Condition = domain.ConditionAnd
	}
	if req.OwnerID == "" {
		req.OwnerID = "default"
	}

	size, err := h.counter.CountAudience(r.Context(), req.Rules, req.Condition, req.UseMockData)
	if err != nil {
		httputil.BadRequest(w, "invalid rules: "+err.Error())
		return
	}

	seg := &domain.Segment{
		Name:         req.Name,
		OwnerID:      req.OwnerID,
		Rules:        req.Rules,
		Condition:    req.Condition,
		AudienceSize: size,
		UseMockData:  req.UseMockData,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := h.segments.CreateSegment(r.Context(), seg)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	seg.ID = id
	httputil.Created(w, seg)
}

// GetSegment returns one segment definition.
//
//	GET /api/segments/{segmentID}
func (h *Handlers) GetSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "segmentID")
	seg, err := h.segments.GetSegment(r.Context(), id)
	if err != nil {
		if errors.Is(err, delivery.ErrSegmentNotFound) {
			httputil.NotFound(w, "segment not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, seg)
}
