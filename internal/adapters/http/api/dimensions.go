// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/meeplerank/internal/domain/model"
)

// DimensionDependencies defines the interface for dimension reads.
type DimensionDependencies interface {
	Dimensions() []model.Dimension
}

// DimensionsHandler handles dimension listing requests.
type DimensionsHandler struct {
	deps DimensionDependencies
}

// NewDimensionsHandler creates a new dimensions handler.
func NewDimensionsHandler(deps DimensionDependencies) *DimensionsHandler {
	return &DimensionsHandler{deps: deps}
}

type dimensionResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// HandleGetDimensions handles GET /dimensions requests.
func (h *DimensionsHandler) HandleGetDimensions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	dims := h.deps.Dimensions()
	out := make([]dimensionResponse, 0, len(dims))
	for _, d := range dims {
		out = append(out, dimensionResponse{ID: d.ID, Name: d.Name, Weight: d.Weight})
	}
	writeJSON(w, http.StatusOK, out)
}
