package api

import (
	"net/http"

	"github.com/ignite/crm-pipeline/internal/pkg/httputil"
)

// SuggestMessageRequest asks the AI model for campaign copy.
type SuggestMessageRequest struct {
	Audience string `json:"audience"`
	Goal     string `json:"goal"`
}

// SuggestMessage returns an AI-generated campaign message draft.
//
//	POST /api/content/suggest-message
func (h *Handlers) SuggestMessage(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		httputil.ServiceUnavailable(w, "content generation is not configured")
		return
	}
	var req SuggestMessageRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Audience == "" {
		httputil.BadRequest(w, "audience is required")
		return
	}

	msg, err := h.content.SuggestMessage(r.Context(), req.Audience, req.Goal)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"message": msg})
}

// GenerateImageRequest asks the image model for a campaign visual.
type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateImage returns a base64-encoded campaign image.
//
//	POST /api/content/generate-image
func (h *Handlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		httputil.ServiceUnavailable(w, "content generation is not configured")
		return
	}
	var req GenerateImageRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		httputil.BadRequest(w, "prompt is required")
		return
	}

	img, err := h.content.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"image_base64": img})
}
