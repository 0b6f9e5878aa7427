package api

import (
	"errors"
	"net/http"

	"github.com/ignite/crm-pipeline/internal/ingest"
	"github.com/ignite/crm-pipeline/internal/pkg/httputil"
)

// enqueueResponse acknowledges that a record was appended to the log.
// The record id is the stream entry id, not a database id: the row does
// not exist until the consumer applies it.
type enqueueResponse struct {
	Status   string `json:"status"`
	RecordID string `json:"record_id"`
}

// CreateCustomer accepts a customer payload and appends it for async
// ingestion.
//
//	POST /api/customers
func (h *Handlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in ingest.CustomerInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	id, err := h.producer.IngestCustomer(r.Context(), in)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.JSON(w, http.StatusAccepted, enqueueResponse{Status: "queued", RecordID: id})
}

// CreateOrder accepts an order payload and appends it for async
// ingestion.
//
//	POST /api/orders
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in ingest.OrderInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	id, err := h.producer.IngestOrder(r.Context(), in)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.JSON(w, http.StatusAccepted, enqueueResponse{Status: "queued", RecordID: id})
}
