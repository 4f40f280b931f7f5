// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/meeplerank/internal/app"
	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/selection"
	"github.com/okian/meeplerank/internal/domain/types"
)

// PairDependencies defines the interface for pair scheduling.
type PairDependencies interface {
	NextPair(ctx context.Context, userID, dimensionID string) (model.Candidate, model.Candidate, error)
}

// PairsHandler handles next-pair requests.
type PairsHandler struct {
	deps PairDependencies
}

// NewPairsHandler creates a new pairs handler.
func NewPairsHandler(deps PairDependencies) *PairsHandler {
	return &PairsHandler{deps: deps}
}

// HandleGetPair handles GET /pairs?user_id=U&dimension_id=D requests.
func (h *PairsHandler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pair"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	dimensionID := strings.TrimSpace(r.URL.Query().Get("dimension_id"))
	if userID == "" || dimensionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("user_id and dimension_id are required")))
		return
	}

	a, b, err := h.deps.NextPair(r.Context(), userID, dimensionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownDimension):
			writeError(w, http.StatusBadRequest, "unknown_dimension", err)
		case errors.Is(err, selection.ErrInsufficientCandidates):
			writeError(w, http.StatusBadRequest, "insufficient_candidates", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, types.Pair{ItemA: pairItem(a), ItemB: pairItem(b)})
}

func pairItem(c model.Candidate) types.PairItem {
	d := types.Diagnostics{Comparisons: c.Comparisons, Priority: c.Priority}
	if !c.LastCompared.IsZero() {
		d.LastCompared = c.LastCompared.UTC().Format(time.RFC3339)
	}
	return types.PairItem{ItemID: c.ItemID, Diagnostics: d}
}
