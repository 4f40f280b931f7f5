// Package types contains common types used across the application
package types

// Entry represents one row of a user's overall ranking
type Entry struct {
	Position int     `json:"position"`
	ItemID   string  `json:"item_id"`
	Score    float64 `json:"score"`
}

// Score represents one adjusted per-dimension score row
type Score struct {
	ItemID      string  `json:"item_id"`
	DimensionID string  `json:"dimension_id"`
	Score       float64 `json:"score"`
	Frequency   int     `json:"frequency"`
}

// PairItem is one side of a comparison pair, with scheduling diagnostics
type PairItem struct {
	ItemID      string      `json:"item_id"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics explains why the scheduler picked an item. Informational only.
type Diagnostics struct {
	Comparisons  int     `json:"comparisons"`
	LastCompared string  `json:"last_compared,omitempty"` // RFC3339, empty when never compared
	Priority     float64 `json:"priority"`
}

// Pair is the response shape for a next-pair request
type Pair struct {
	ItemA PairItem `json:"item_a"`
	ItemB PairItem `json:"item_b"`
}
