// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/meeplerank/internal/adapters/repository"
)

// CollectionDependencies defines the interface for collection operations.
type CollectionDependencies interface {
	AddToCollection(ctx context.Context, userID, itemID string) error
	Collection(ctx context.Context, userID string) ([]string, error)
}

// CollectionsHandler handles per-user collection requests.
type CollectionsHandler struct {
	deps CollectionDependencies
}

// NewCollectionsHandler creates a new collections handler.
func NewCollectionsHandler(deps CollectionDependencies) *CollectionsHandler {
	return &CollectionsHandler{deps: deps}
}

// collectionAddRequest mirrors the OpenAPI schema for POST /collections/{user_id}.
type collectionAddRequest struct {
	ItemID string `json:"item_id"`
}

type collectionResponse struct {
	UserID  string   `json:"user_id"`
	ItemIDs []string `json:"item_ids"`
}

// HandleCollection handles GET and POST /collections/{user_id} requests.
func (h *CollectionsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	const op = "api.collections"
	userID := strings.TrimPrefix(r.URL.Path, "/collections/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := h.deps.Collection(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		if items == nil {
			items = []string{}
		}
		writeJSON(w, http.StatusOK, collectionResponse{UserID: userID, ItemIDs: items})
	case http.MethodPost:
		var req collectionAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.ItemID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, errors.New("missing item_id")))
			return
		}
		if err := h.deps.AddToCollection(r.Context(), userID, req.ItemID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
