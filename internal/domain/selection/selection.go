// Package selection implements the pair scheduler: given a user's candidate
// items and their comparison statistics for one dimension, it ranks candidates
// by how much they need another comparison and returns the two most urgent.
package selection

import (
	"errors"
	"sort"
	"time"

	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/rankmath"
)

// MinCandidates is the smallest collection that can produce a pair.
const MinCandidates = 2

// ErrInsufficientCandidates is returned when the user owns fewer than two
// comparable items. The caller must grow the collection first; there is
// nothing to retry.
var ErrInsufficientCandidates = errors.New("insufficient candidates for comparison")

// Stats carries an item's comparison history within one dimension.
type Stats struct {
	Comparisons  int
	LastCompared time.Time // zero when never compared
}

// NextPair computes a priority for every candidate and returns the two
// highest. Priority blends a recency signal (long-uncompared items are
// urgent, never-compared items maximally so) with a coverage signal
// (often-compared items are not).
//
// Equal priorities are broken by ascending item ID so the choice is stable
// across runs. The returned candidates carry their diagnostics for the
// response; nothing is persisted.
func NextPair(now time.Time, itemIDs []string, stats map[string]Stats) (model.Candidate, model.Candidate, error) {
	if len(itemIDs) < MinCandidates {
		return model.Candidate{}, model.Candidate{}, ErrInsufficientCandidates
	}

	candidates := make([]model.Candidate, 0, len(itemIDs))
	for _, id := range itemIDs {
		st := stats[id] // zero value means never compared
		recency := rankmath.RecencySignal(st.LastCompared, now)
		coverage := rankmath.CoverageSignal(st.Comparisons)

		candidates = append(candidates, model.Candidate{
			ItemID:       id,
			Comparisons:  st.Comparisons,
			LastCompared: st.LastCompared,
			Priority:     rankmath.Priority(recency, coverage),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ItemID < candidates[j].ItemID
	})

	return candidates[0], candidates[1], nil
}
