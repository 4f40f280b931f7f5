// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ResyncDependencies defines the interface for resync scheduling.
type ResyncDependencies interface {
	// Resync enqueues a rebuild. Returns false on backpressure.
	Resync(ctx context.Context, userID string) bool
}

// ResyncHandler handles rebuild requests.
type ResyncHandler struct {
	deps ResyncDependencies
}

// NewResyncHandler creates a new resync handler.
func NewResyncHandler(deps ResyncDependencies) *ResyncHandler {
	return &ResyncHandler{deps: deps}
}

// resyncRequest mirrors the OpenAPI schema for POST /resync.
type resyncRequest struct {
	UserID string `json:"user_id"`
}

// HandlePostResync handles POST /resync requests. The rebuild itself runs
// asynchronously; a 202 means the job was queued, not finished.
func (h *ResyncHandler) HandlePostResync(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_resync"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing user_id")))
		return
	}
	if ok := h.deps.Resync(r.Context(), req.UserID); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
