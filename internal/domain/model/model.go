// Package model contains domain models passed between layers.
package model

import "time"

// Tie is the sentinel ChosenItemID meaning neither item was preferred.
const Tie = ""

// Game is a catalog entry. The ranking engine reads games, never mutates them.
type Game struct {
	ID            string  // stable catalog identifier
	Name          string
	YearPublished int
	MinPlayers    int
	MaxPlayers    int
	Playtime      string  // e.g. "90 min"
	Complexity    float64 // community weight, informational only
}

// Dimension is a named axis of comparison with a relative weight used when
// blending per-dimension scores into one overall ranking. The dimension set is
// process-wide configuration and read-only to the engine.
type Dimension struct {
	ID     string
	Name   string
	Weight float64 // relative weight, interpreted as weight/100 in aggregation
}

// Comparison is one pairwise choice. Comparisons are append-only: they are
// never updated or deleted, and corrections are made by recording new ones.
// The comparison log is the engine's sole source of truth for scoring.
type Comparison struct {
	ID           string
	UserID       string
	DimensionID  string
	ItemAID      string
	ItemBID      string
	ChosenItemID string // ItemAID, ItemBID, or Tie
	At           time.Time
}

// IsTie reports whether the comparison recorded no preference.
func (c Comparison) IsTie() bool { return c.ChosenItemID == Tie }

// AdjustedScore is derived state for one (user, item, dimension) triple.
// Rows are fully recomputed from the comparison log on every change, never
// incrementally patched.
type AdjustedScore struct {
	UserID      string
	ItemID      string
	DimensionID string
	Score       float64 // normalized to [1,10]
	Frequency   int     // comparisons the item appeared in
}

// RankEntry is one row of a user's overall ranking.
type RankEntry struct {
	ItemID   string
	Score    float64 // weighted blend across dimensions
	Position int     // dense 1..N rank
}

// Candidate is a collection item annotated with scheduling diagnostics.
// Diagnostics are attached to pair responses for observability, not persisted.
type Candidate struct {
	ItemID       string
	Comparisons  int
	LastCompared time.Time // zero when never compared in the dimension
	Priority     float64
}
