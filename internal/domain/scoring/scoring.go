// Package scoring implements the score update engine: it folds a user's full
// comparison history for one dimension into decayed, normalized per-item
// scores. The fold is a pure function of the log and the clock, so repeated
// recomputes over the same log converge to the same result.
package scoring

import (
	"time"

	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/rankmath"
)

// Contribution constants for a single comparison.
const (
	winContribution = 1.0
	tieContribution = 0.5
)

// Result holds the recomputed scores for one (user, dimension) pair, keyed by
// item ID. Items that never appear in the log are absent.
type Result struct {
	Scores map[string]model.AdjustedScore
}

// Recompute folds the comparison log into normalized scores as of now.
//
// Every comparison contributes +1 to both items' frequency. The chosen item
// gains 1*decay raw score, the loser 0; a tie gives both items 0.5*decay.
// Raw scores are then min-max normalized to [1,10], with 5.5 for zero
// variance. The caller is expected to pass the complete log for the key;
// partial logs produce partial (wrong) scores.
func Recompute(now time.Time, comparisons []model.Comparison) Result {
	raw := make(map[string]float64)
	frequency := make(map[string]int)

	for _, c := range comparisons {
		decay := rankmath.Decay(rankmath.DaysBetween(c.At, now))

		frequency[c.ItemAID]++
		frequency[c.ItemBID]++

		switch {
		case c.IsTie():
			raw[c.ItemAID] += tieContribution * decay
			raw[c.ItemBID] += tieContribution * decay
		case c.ChosenItemID == c.ItemAID:
			raw[c.ItemAID] += winContribution * decay
			raw[c.ItemBID] += 0 // loser keeps a raw entry so normalization sees it
		default:
			raw[c.ItemBID] += winContribution * decay
			raw[c.ItemAID] += 0
		}
	}

	normalized := rankmath.Normalize(raw)

	scores := make(map[string]model.AdjustedScore, len(normalized))
	for itemID, score := range normalized {
		scores[itemID] = model.AdjustedScore{
			ItemID:    itemID,
			Score:     score,
			Frequency: frequency[itemID],
		}
	}
	return Result{Scores: scores}
}
