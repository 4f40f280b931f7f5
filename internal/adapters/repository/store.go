// Package repository defines the persistence contract for the ranking engine
// and its two implementations (in-memory and SQLite).
//
// The comparison log is append-only: comparisons are never updated or
// deleted. AdjustedScore and ranking rows are derived state and are only ever
// written through full-replace operations, so a reader observes either the
// previous complete recompute or the next one, never a half-written mix.
package repository

import (
	"context"
	"time"

	"github.com/okian/meeplerank/internal/domain/model"
)

// ItemStats summarizes one item's comparison history within a dimension,
// as needed by the pair scheduler.
type ItemStats struct {
	Comparisons  int
	LastCompared time.Time // zero when never compared
}

// Store provides read/write access to the engine's state.
type Store interface {
	// AppendComparison durably records a comparison. Append-only.
	AppendComparison(ctx context.Context, c model.Comparison) error

	// ListComparisons returns the full log for (user, dimension),
	// most recent first.
	ListComparisons(ctx context.Context, userID, dimensionID string) ([]model.Comparison, error)

	// ComparisonStats returns per-item comparison counts and last-compared
	// times for (user, dimension). Items never compared are absent.
	ComparisonStats(ctx context.Context, userID, dimensionID string) (map[string]ItemStats, error)

	// ReplaceDimensionScores atomically replaces every score row for
	// (user, dimension) with the given set. Rows for items that dropped
	// out of the comparison log are removed by the replace.
	ReplaceDimensionScores(ctx context.Context, userID, dimensionID string, scores []model.AdjustedScore) error

	// ListDimensionScores returns the score rows for (user, dimension).
	ListDimensionScores(ctx context.Context, userID, dimensionID string) ([]model.AdjustedScore, error)

	// ListScores returns all of a user's score rows across dimensions.
	ListScores(ctx context.Context, userID string) ([]model.AdjustedScore, error)

	// ReplaceRanking atomically replaces the user's overall ranking.
	ReplaceRanking(ctx context.Context, userID string, entries []model.RankEntry) error

	// GetRanking returns the user's ranking ordered by position.
	GetRanking(ctx context.Context, userID string) ([]model.RankEntry, error)

	// AddToCollection adds a catalog item to the user's candidate pool.
	// Returns ErrNotFound if the item is not in the catalog.
	AddToCollection(ctx context.Context, userID, itemID string) error

	// ListCollection returns the user's item IDs in insertion order.
	ListCollection(ctx context.Context, userID string) ([]string, error)

	// PutGame creates or updates a catalog entry.
	PutGame(ctx context.Context, g model.Game) error

	// GetGame returns a catalog entry or ErrNotFound.
	GetGame(ctx context.Context, id string) (model.Game, error)

	// ListGames returns the catalog ordered by ID.
	ListGames(ctx context.Context) ([]model.Game, error)

	// Close releases any resources held by the store.
	Close() error
}
