// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/meeplerank/internal/app"
	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/types"
)

// ScoreDependencies defines the interface for score reads.
type ScoreDependencies interface {
	Scores(ctx context.Context, userID string) ([]model.AdjustedScore, error)
	DimensionScores(ctx context.Context, userID, dimensionID string) ([]model.AdjustedScore, error)
}

// ScoresHandler handles per-dimension score requests.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleGetScores handles GET /scores?user_id=U[&dimension_id=D] requests.
// Without dimension_id it returns score rows across all dimensions.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("user_id is required")))
		return
	}
	dimensionID := strings.TrimSpace(r.URL.Query().Get("dimension_id"))

	var (
		rows []model.AdjustedScore
		err  error
	)
	if dimensionID == "" {
		rows, err = h.deps.Scores(r.Context(), userID)
	} else {
		rows, err = h.deps.DimensionScores(r.Context(), userID, dimensionID)
	}
	if err != nil {
		if errors.Is(err, app.ErrUnknownDimension) {
			writeError(w, http.StatusBadRequest, "unknown_dimension", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]types.Score, 0, len(rows))
	for _, s := range rows {
		out = append(out, types.Score{
			ItemID:      s.ItemID,
			DimensionID: s.DimensionID,
			Score:       s.Score,
			Frequency:   s.Frequency,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
