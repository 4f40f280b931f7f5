// Package rankmath provides the pure math used by the ranking engine:
// temporal decay of comparison weight, min-max normalization to the [1,10]
// scale, and the selection-priority signals.
package rankmath

import (
	"math"
	"time"
)

// Scoring and scheduling constants.
const (
	// DecayLambda is the temporal decay rate. exp(-0.01*d) gives a
	// half-life of roughly 69 days.
	DecayLambda = 0.01

	// NeutralScore is used when normalization has no variance to spread,
	// and when aggregation has no scored dimensions to blend.
	NeutralScore = 5.5

	// ScaleMin and scaleSpan define the normalized range: [1, 1+9] = [1,10].
	ScaleMin  = 1.0
	scaleSpan = 9.0

	// recencyWindowDays caps the recency signal: anything not compared in
	// the last 30 days is maximally urgent.
	recencyWindowDays = 30.0

	// coverageScale controls how fast repeated comparisons reduce urgency.
	coverageScale = 5.0

	// Fixed blend weights for selection priority.
	recencyWeight  = 0.6
	coverageWeight = 0.4

	hoursPerDay = 24.0
)

// Decay returns the temporal weight of a comparison made daysAgo days ago.
// Strictly decreasing in daysAgo; Decay(0) == 1.
func Decay(daysAgo float64) float64 {
	return math.Exp(-DecayLambda * daysAgo)
}

// DaysBetween returns the fractional number of days from earlier to later.
func DaysBetween(earlier, later time.Time) float64 {
	return later.Sub(earlier).Hours() / hoursPerDay
}

// Normalize rescales raw accumulated scores to [1,10] with min-max scaling.
// When all raw scores are equal (including a single item) every item maps to
// the neutral 5.5. The input map is not mutated.
func Normalize(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	minRaw := math.Inf(1)
	maxRaw := math.Inf(-1)
	for _, v := range raw {
		minRaw = math.Min(minRaw, v)
		maxRaw = math.Max(maxRaw, v)
	}

	if maxRaw == minRaw {
		for id := range raw {
			out[id] = NeutralScore
		}
		return out
	}

	span := maxRaw - minRaw
	for id, v := range raw {
		out[id] = ScaleMin + scaleSpan*(v-minRaw)/span
	}
	return out
}

// RecencySignal maps the time since an item's most recent comparison to [0,1].
// A zero lastCompared means the item was never compared and gets the maximum
// signal, putting it at the front of the queue.
func RecencySignal(lastCompared, now time.Time) float64 {
	if lastCompared.IsZero() {
		return 1.0
	}
	daysAgo := DaysBetween(lastCompared, now)
	if daysAgo < 0 {
		daysAgo = 0
	}
	return math.Min(daysAgo/recencyWindowDays, 1.0)
}

// CoverageSignal maps an item's comparison count to (0,1]: items compared many
// times contribute little additional urgency.
func CoverageSignal(comparisons int) float64 {
	return math.Exp(-float64(comparisons) / coverageScale)
}

// Priority blends the two scheduling signals with their fixed 60/40 weights.
func Priority(recency, coverage float64) float64 {
	return recencyWeight*recency + coverageWeight*coverage
}
