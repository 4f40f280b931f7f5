// Package ranking implements the aggregator that blends a user's
// per-dimension scores into one overall ranked list using the configured
// dimension weights.
package ranking

import (
	"sort"

	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/rankmath"
)

// weightDivisor converts configured weights (percent-style) to fractions.
const weightDivisor = 100.0

// Aggregate computes the overall ranking for the given items.
//
// For each item, every dimension with an adjusted score contributes
// score*(weight/100) to the weighted sum and weight/100 to the total weight;
// the final score is their quotient. Items with no scored dimension at all
// get the neutral 5.5 so a fresh collection still ranks completely.
//
// Items are sorted by final score descending, ties broken by ascending item
// ID, and assigned dense 1..N positions. The result fully replaces any prior
// ranking; it is never patched incrementally.
func Aggregate(itemIDs []string, dimensions []model.Dimension, scores []model.AdjustedScore) []model.RankEntry {
	// score lookup by (item, dimension)
	byItem := make(map[string]map[string]float64, len(itemIDs))
	for _, s := range scores {
		m, ok := byItem[s.ItemID]
		if !ok {
			m = make(map[string]float64)
			byItem[s.ItemID] = m
		}
		m[s.DimensionID] = s.Score
	}

	entries := make([]model.RankEntry, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		var weighted, totalWeight float64
		for _, dim := range dimensions {
			score, ok := byItem[itemID][dim.ID]
			if !ok {
				continue
			}
			weighted += score * (dim.Weight / weightDivisor)
			totalWeight += dim.Weight / weightDivisor
		}

		final := rankmath.NeutralScore
		if totalWeight > 0 {
			final = weighted / totalWeight
		}
		entries = append(entries, model.RankEntry{ItemID: itemID, Score: final})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ItemID < entries[j].ItemID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}
