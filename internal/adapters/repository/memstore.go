package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/pkg/metrics"
)

// MemStore is the default, mutex-guarded in-memory Store. It keeps the same
// replace-only discipline for derived rows as the SQLite store so the two are
// interchangeable in tests and small deployments.
type MemStore struct {
	mu sync.RWMutex

	// comparison log per (user, dimension), append order (oldest first)
	comparisons map[string][]model.Comparison

	// derived score rows per (user, dimension), keyed by item
	scores map[string]map[string]model.AdjustedScore

	// derived overall ranking per user, ordered by position
	rankings map[string][]model.RankEntry

	// collection membership per user, insertion order plus a seen set
	collections map[string][]string
	members     map[string]map[string]struct{}

	games  map[string]model.Game
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		comparisons: make(map[string][]model.Comparison),
		scores:      make(map[string]map[string]model.AdjustedScore),
		rankings:    make(map[string][]model.RankEntry),
		collections: make(map[string][]string),
		members:     make(map[string]map[string]struct{}),
		games:       make(map[string]model.Game),
	}
}

// key builds the (user, dimension) composite key.
func key(userID, dimensionID string) string {
	return userID + "\x00" + dimensionID
}

func (s *MemStore) AppendComparison(_ context.Context, c model.Comparison) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	k := key(c.UserID, c.DimensionID)
	s.comparisons[k] = append(s.comparisons[k], c)
	return nil
}

func (s *MemStore) ListComparisons(_ context.Context, userID, dimensionID string) ([]model.Comparison, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	log := s.comparisons[key(userID, dimensionID)]
	out := make([]model.Comparison, len(log))
	for i, c := range log {
		out[len(log)-1-i] = c // most recent first
	}
	return out, nil
}

func (s *MemStore) ComparisonStats(_ context.Context, userID, dimensionID string) (map[string]ItemStats, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	stats := make(map[string]ItemStats)
	for _, c := range s.comparisons[key(userID, dimensionID)] {
		for _, itemID := range []string{c.ItemAID, c.ItemBID} {
			st := stats[itemID]
			st.Comparisons++
			if c.At.After(st.LastCompared) {
				st.LastCompared = c.At
			}
			stats[itemID] = st
		}
	}
	return stats, nil
}

func (s *MemStore) ReplaceDimensionScores(_ context.Context, userID, dimensionID string, scores []model.AdjustedScore) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	rows := make(map[string]model.AdjustedScore, len(scores))
	for _, sc := range scores {
		sc.UserID = userID
		sc.DimensionID = dimensionID
		rows[sc.ItemID] = sc
	}
	s.scores[key(userID, dimensionID)] = rows
	return nil
}

func (s *MemStore) ListDimensionScores(_ context.Context, userID, dimensionID string) ([]model.AdjustedScore, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return sortedScores(s.scores[key(userID, dimensionID)]), nil
}

func (s *MemStore) ListScores(_ context.Context, userID string) ([]model.AdjustedScore, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []model.AdjustedScore
	for k, rows := range s.scores {
		if len(k) > len(userID) && k[:len(userID)] == userID && k[len(userID)] == '\x00' {
			out = append(out, sortedScores(rows)...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DimensionID != out[j].DimensionID {
			return out[i].DimensionID < out[j].DimensionID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (s *MemStore) ReplaceRanking(_ context.Context, userID string, entries []model.RankEntry) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.rankings[userID] = append([]model.RankEntry(nil), entries...)
	return nil
}

func (s *MemStore) GetRanking(_ context.Context, userID string) ([]model.RankEntry, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]model.RankEntry(nil), s.rankings[userID]...), nil
}

func (s *MemStore) AddToCollection(_ context.Context, userID, itemID string) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.games[itemID]; !ok {
		return ErrNotFound
	}
	seen, ok := s.members[userID]
	if !ok {
		seen = make(map[string]struct{})
		s.members[userID] = seen
	}
	if _, ok := seen[itemID]; ok {
		return nil // membership is a set
	}
	seen[itemID] = struct{}{}
	s.collections[userID] = append(s.collections[userID], itemID)
	return nil
}

func (s *MemStore) ListCollection(_ context.Context, userID string) ([]string, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]string(nil), s.collections[userID]...), nil
}

func (s *MemStore) PutGame(_ context.Context, g model.Game) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.games[g.ID] = g
	return nil
}

func (s *MemStore) GetGame(_ context.Context, id string) (model.Game, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Game{}, ErrClosed
	}
	g, ok := s.games[id]
	if !ok {
		return model.Game{}, ErrNotFound
	}
	return g, nil
}

func (s *MemStore) ListGames(_ context.Context) ([]model.Game, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func sortedScores(rows map[string]model.AdjustedScore) []model.AdjustedScore {
	out := make([]model.AdjustedScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}
