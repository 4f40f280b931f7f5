// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/meeplerank/internal/app"
	"github.com/okian/meeplerank/internal/domain/model"
)

// ComparisonDependencies defines the interface for recording comparisons.
type ComparisonDependencies interface {
	SubmitComparison(ctx context.Context, sub app.Submission) (model.Comparison, bool, error)
}

// ComparisonsHandler handles comparison submissions.
type ComparisonsHandler struct {
	deps ComparisonDependencies
}

// NewComparisonsHandler creates a new comparisons handler.
func NewComparisonsHandler(deps ComparisonDependencies) *ComparisonsHandler {
	return &ComparisonsHandler{deps: deps}
}

// comparisonRequest mirrors the OpenAPI schema for POST /comparisons.
// A null or absent chosen_item_id records a tie.
type comparisonRequest struct {
	SubmissionID string `json:"submission_id"`
	UserID       string `json:"user_id"`
	DimensionID  string `json:"dimension_id"`
	ItemAID      string `json:"item_a_id"`
	ItemBID      string `json:"item_b_id"`
	ChosenItemID string `json:"chosen_item_id"`
}

func (c comparisonRequest) validate() error {
	switch {
	case strings.TrimSpace(c.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(c.DimensionID) == "":
		return errors.New("missing dimension_id")
	case strings.TrimSpace(c.ItemAID) == "":
		return errors.New("missing item_a_id")
	case strings.TrimSpace(c.ItemBID) == "":
		return errors.New("missing item_b_id")
	}
	return nil
}

type comparisonResponse struct {
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	ComparisonID string `json:"comparison_id,omitempty"`
	RecordedAt   string `json:"recorded_at,omitempty"`
}

// HandlePostComparison handles POST /comparisons requests.
func (h *ComparisonsHandler) HandlePostComparison(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_comparison"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	c, duplicate, err := h.deps.SubmitComparison(r.Context(), app.Submission{
		SubmissionID: req.SubmissionID,
		UserID:       req.UserID,
		DimensionID:  req.DimensionID,
		ItemAID:      req.ItemAID,
		ItemBID:      req.ItemBID,
		ChosenItemID: req.ChosenItemID,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownDimension):
			writeError(w, http.StatusBadRequest, "unknown_dimension", err)
		case errors.Is(err, app.ErrInvalidChoice):
			writeError(w, http.StatusBadRequest, "invalid_choice", err)
		case errors.Is(err, app.ErrRecomputeFailed):
			// The comparison is durable; only the derived state is stale.
			writeError(w, http.StatusInternalServerError, "recompute_failed", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, comparisonResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, comparisonResponse{
		Status:       "recorded",
		ComparisonID: c.ID,
		RecordedAt:   c.At.Format(time.RFC3339),
	})
}
