package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/pkg/httputil"
)

// DispatchCampaign starts a campaign run. Delivery is stream-backed
// when the log store is reachable and synchronous otherwise; the
// summary says which path ran.
//
//	POST /api/campaigns
func (h *Handlers) DispatchCampaign(w http.ResponseWriter, r *http.Request) {
	var in delivery.DispatchInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	if in.SegmentID == "" {
		httputil.BadRequest(w, "segment_id is required")
		return
	}
	if in.Message == "" {
		httputil.BadRequest(w, "message is required")
		return
	}

	summary, err := h.orchestrator.Dispatch(r.Context(), in)
	if err != nil {
		if errors.Is(err, delivery.ErrSegmentNotFound) {
			httputil.NotFound(w, "segment not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, summary)
}

// DeliverCampaignNow runs a campaign fully synchronously and returns
// the sent/failed counts in the response.
//
//	POST /api/campaigns/deliver-now
func (h *Handlers) DeliverCampaignNow(w http.ResponseWriter, r *http.Request) {
	var in delivery.DispatchInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	if in.SegmentID == "" {
		httputil.BadRequest(w, "segment_id is required")
		return
	}
	if in.Message == "" {
		httputil.BadRequest(w, "message is required")
		return
	}

	summary, err := h.orchestrator.DeliverNow(r.Context(), in)
	if err != nil {
		if errors.Is(err, delivery.ErrSegmentNotFound) {
			httputil.NotFound(w, "segment not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, summary)
}

// campaignStatsResponse wraps outcome counts for one campaign.
type campaignStatsResponse struct {
	CampaignID string `json:"campaign_id"`
	Queued     int    `json:"queued"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
}

// CampaignStats returns outcome counts for one campaign. The MASTER_LOG
// audit row is excluded from every count.
//
//	GET /api/campaigns/{campaignID}/stats
func (h *Handlers) CampaignStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	stats, err := h.stats.CampaignStats(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, campaignStatsResponse{
		CampaignID: id,
		Queued:     stats.Queued,
		Sent:       stats.Sent,
		Failed:     stats.Failed,
		Total:      stats.Total(),
	})
}
