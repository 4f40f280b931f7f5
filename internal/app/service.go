// Package app provides the core business service that implements the
// dependencies required by the HTTP API: pair scheduling, comparison
// recording with synchronous score and ranking recomputes, and the
// asynchronous resync pipeline.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/meeplerank/internal/adapters/mq/queue"
	"github.com/okian/meeplerank/internal/adapters/mq/worker"
	"github.com/okian/meeplerank/internal/adapters/repository"
	"github.com/okian/meeplerank/internal/domain/dedupe"
	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/ranking"
	"github.com/okian/meeplerank/internal/domain/scoring"
	"github.com/okian/meeplerank/internal/domain/selection"
	"github.com/okian/meeplerank/pkg/logger"
	"github.com/okian/meeplerank/pkg/metrics"
)

// Defaults applied when no option overrides them.
const (
	defaultQueueSize   = 1024
	defaultWorkerCount = 2
	defaultDedupeSize  = 50_000
)

// Submission is one pairwise choice as received from a client.
type Submission struct {
	// SubmissionID is an optional client idempotency key. Replays of a
	// seen ID are acknowledged without recording a second comparison.
	SubmissionID string
	UserID       string
	DimensionID  string
	ItemAID      string
	ItemBID      string
	ChosenItemID string // ItemAID, ItemBID, or model.Tie
}

// Service implements the ranking engine around a Store. All derived state is
// recomputed in full from the comparison log; the service holds no
// authoritative mutable state of its own.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	deduper    dedupe.Deduper
	rebuildQ   queue.Queue
	workerPool *worker.Pool

	dimensions []model.Dimension
	clock      clockwork.Clock

	// scoreLocks serializes per-(user,dimension) score recomputes;
	// rankLocks serializes per-user ranking recomputes.
	scoreLocks *keyedMutex
	rankLocks  *keyedMutex

	queueSize   int
	workerCount int
	dedupeSize  int

	started atomic.Bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Defaults to the in-memory store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDimensions sets the configured comparison dimensions.
func WithDimensions(dims []model.Dimension) Option {
	return func(s *Service) {
		if len(dims) > 0 {
			s.dimensions = dims
		}
	}
}

// WithClock sets the clock used for timestamps, decay, and recency. Tests
// inject a fake clock to make decay arithmetic deterministic.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRebuildQueueSize bounds the resync job queue.
func WithRebuildQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRebuildWorkerCount sets the number of rebuild workers.
func WithRebuildWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize bounds the submission idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:       clockwork.NewRealClock(),
		scoreLocks:  newKeyedMutex(),
		rankLocks:   newKeyedMutex(),
		queueSize:   defaultQueueSize,
		workerCount: defaultWorkerCount,
		dedupeSize:  defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components and the rebuild pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("engine")
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.rebuildQ = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.rebuildQ, s)
	s.workerPool.Start(ctx)

	s.started.Store(true)
	s.logger.Info(ctx, "ranking engine started",
		logger.Int("dimensions", len(s.dimensions)),
		logger.Int("rebuildWorkers", s.workerCount),
	)
	return nil
}

// Stop gracefully shuts down the rebuild pipeline and closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return
	}
	if err := s.rebuildQ.Close(); err != nil {
		s.logger.Warn(ctx, "closing rebuild queue", logger.Error(err))
	}
	if err := s.workerPool.Stop(ctx); err != nil {
		s.logger.Warn(ctx, "stopping rebuild workers", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}
	s.started.Store(false)
	s.logger.Info(ctx, "ranking engine stopped")
}

// Dimensions returns the configured comparison axes.
func (s *Service) Dimensions() []model.Dimension {
	out := make([]model.Dimension, len(s.dimensions))
	copy(out, s.dimensions)
	return out
}

// running reports ErrNotStarted for operations invoked before Start wired
// the store, deduper, and rebuild pipeline. Lock-free so workers draining
// during Stop, which holds the service mutex, are not blocked.
func (s *Service) running() error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) dimensionConfigured(id string) bool {
	for _, d := range s.dimensions {
		if d.ID == id {
			return true
		}
	}
	return false
}

// NextPair picks the two items most in need of a comparison for
// (user, dimension). Read-only; the returned candidates carry scheduling
// diagnostics for the response.
func (s *Service) NextPair(ctx context.Context, userID, dimensionID string) (model.Candidate, model.Candidate, error) {
	var none model.Candidate
	if err := s.running(); err != nil {
		return none, none, err
	}
	if !s.dimensionConfigured(dimensionID) {
		return none, none, fmt.Errorf("%w: %s", ErrUnknownDimension, dimensionID)
	}

	items, err := s.store.ListCollection(ctx, userID)
	if err != nil {
		return none, none, fmt.Errorf("list collection: %w", err)
	}
	rawStats, err := s.store.ComparisonStats(ctx, userID, dimensionID)
	if err != nil {
		return none, none, fmt.Errorf("comparison stats: %w", err)
	}
	stats := make(map[string]selection.Stats, len(rawStats))
	for id, st := range rawStats {
		stats[id] = selection.Stats{Comparisons: st.Comparisons, LastCompared: st.LastCompared}
	}

	a, b, err := selection.NextPair(s.clock.Now(), items, stats)
	if err != nil {
		return none, none, err
	}
	metrics.RecordPairRequest()
	return a, b, nil
}

// SubmitComparison validates and durably records one choice, then
// synchronously recomputes the dimension's scores and the user's overall
// ranking. The returned bool is true when the submission ID was already seen
// and nothing new was recorded.
//
// Once the comparison is appended it is never rolled back: a recompute
// failure is surfaced as ErrRecomputeFailed and a later resync converges the
// derived state.
func (s *Service) SubmitComparison(ctx context.Context, sub Submission) (model.Comparison, bool, error) {
	var zero model.Comparison

	if err := s.running(); err != nil {
		return zero, false, err
	}
	if !s.dimensionConfigured(sub.DimensionID) {
		return zero, false, fmt.Errorf("%w: %s", ErrUnknownDimension, sub.DimensionID)
	}
	if sub.ItemAID == "" || sub.ItemBID == "" || sub.ItemAID == sub.ItemBID {
		return zero, false, fmt.Errorf("%w: pair must be two distinct items", ErrInvalidChoice)
	}
	if sub.ChosenItemID != sub.ItemAID && sub.ChosenItemID != sub.ItemBID && sub.ChosenItemID != model.Tie {
		return zero, false, fmt.Errorf("%w: got %q", ErrInvalidChoice, sub.ChosenItemID)
	}

	if sub.SubmissionID != "" && s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordDuplicateSubmission()
		return zero, true, nil
	}

	c := model.Comparison{
		ID:           uuid.NewString(),
		UserID:       sub.UserID,
		DimensionID:  sub.DimensionID,
		ItemAID:      sub.ItemAID,
		ItemBID:      sub.ItemBID,
		ChosenItemID: sub.ChosenItemID,
		At:           s.clock.Now().UTC(),
	}
	if err := s.store.AppendComparison(ctx, c); err != nil {
		if sub.SubmissionID != "" {
			// The comparison never became durable; let the client retry
			// with the same submission ID.
			s.deduper.Unrecord(ctx, sub.SubmissionID)
		}
		return zero, false, fmt.Errorf("append comparison: %w", err)
	}
	metrics.RecordComparisonRecorded()

	if err := s.recomputeDimension(ctx, sub.UserID, sub.DimensionID); err != nil {
		metrics.RecordRecomputeError()
		return c, false, fmt.Errorf("%w: scores for dimension %s: %w", ErrRecomputeFailed, sub.DimensionID, err)
	}
	if err := s.recomputeRanking(ctx, sub.UserID); err != nil {
		metrics.RecordRecomputeError()
		return c, false, fmt.Errorf("%w: ranking: %w", ErrRecomputeFailed, err)
	}
	return c, false, nil
}

// recomputeDimension folds the full comparison log for (user, dimension)
// into fresh score rows and replaces the stored set, under the per-key lock.
func (s *Service) recomputeDimension(ctx context.Context, userID, dimensionID string) error {
	unlock := s.scoreLocks.Lock(userID + "\x00" + dimensionID)
	defer unlock()

	start := time.Now()
	defer func() { metrics.RecordRecomputeDuration("scores", float64(time.Since(start).Milliseconds())) }()

	log, err := s.store.ListComparisons(ctx, userID, dimensionID)
	if err != nil {
		return fmt.Errorf("list comparisons: %w", err)
	}
	result := scoring.Recompute(s.clock.Now(), log)

	rows := make([]model.AdjustedScore, 0, len(result.Scores))
	for _, sc := range result.Scores {
		sc.UserID = userID
		sc.DimensionID = dimensionID
		rows = append(rows, sc)
	}
	if err := s.store.ReplaceDimensionScores(ctx, userID, dimensionID, rows); err != nil {
		return fmt.Errorf("replace scores: %w", err)
	}
	return nil
}

// recomputeRanking blends the user's per-dimension scores into the overall
// ranking and replaces the stored list, under the per-user lock.
func (s *Service) recomputeRanking(ctx context.Context, userID string) error {
	unlock := s.rankLocks.Lock(userID)
	defer unlock()

	start := time.Now()
	defer func() { metrics.RecordRecomputeDuration("ranking", float64(time.Since(start).Milliseconds())) }()

	items, err := s.store.ListCollection(ctx, userID)
	if err != nil {
		return fmt.Errorf("list collection: %w", err)
	}
	scores, err := s.store.ListScores(ctx, userID)
	if err != nil {
		return fmt.Errorf("list scores: %w", err)
	}
	entries := ranking.Aggregate(items, s.dimensions, scores)
	if err := s.store.ReplaceRanking(ctx, userID, entries); err != nil {
		return fmt.Errorf("replace ranking: %w", err)
	}
	return nil
}

// Ranking returns the user's current overall ranking, best first.
func (s *Service) Ranking(ctx context.Context, userID string) ([]model.RankEntry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.GetRanking(ctx, userID)
}

// DimensionScores returns the user's adjusted scores for one dimension.
func (s *Service) DimensionScores(ctx context.Context, userID, dimensionID string) ([]model.AdjustedScore, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if !s.dimensionConfigured(dimensionID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDimension, dimensionID)
	}
	return s.store.ListDimensionScores(ctx, userID, dimensionID)
}

// Scores returns all of the user's adjusted scores across dimensions.
func (s *Service) Scores(ctx context.Context, userID string) ([]model.AdjustedScore, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.ListScores(ctx, userID)
}

// Resync enqueues a full rebuild of the user's derived state. Returns false
// on backpressure or before Start.
func (s *Service) Resync(ctx context.Context, userID string) bool {
	if err := s.running(); err != nil {
		return false
	}
	return s.rebuildQ.Enqueue(ctx, queue.Job{UserID: userID})
}

// RebuildUser recomputes every configured dimension's scores and then the
// overall ranking for one user. Used by the rebuild workers; safe to repeat.
func (s *Service) RebuildUser(ctx context.Context, userID string) error {
	if err := s.running(); err != nil {
		return err
	}
	for _, dim := range s.dimensions {
		if err := s.recomputeDimension(ctx, userID, dim.ID); err != nil {
			return fmt.Errorf("dimension %s: %w", dim.ID, err)
		}
	}
	return s.recomputeRanking(ctx, userID)
}

// Collection and catalog passthroughs for the HTTP glue.

// AddGame creates or updates a catalog entry.
func (s *Service) AddGame(ctx context.Context, g model.Game) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.store.PutGame(ctx, g)
}

// Game returns one catalog entry.
func (s *Service) Game(ctx context.Context, id string) (model.Game, error) {
	if err := s.running(); err != nil {
		return model.Game{}, err
	}
	return s.store.GetGame(ctx, id)
}

// Games lists the catalog.
func (s *Service) Games(ctx context.Context) ([]model.Game, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.ListGames(ctx)
}

// AddToCollection adds a catalog item to the user's candidate pool.
func (s *Service) AddToCollection(ctx context.Context, userID, itemID string) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.store.AddToCollection(ctx, userID, itemID)
}

// Collection lists the user's item IDs.
func (s *Service) Collection(ctx context.Context, userID string) ([]string, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.ListCollection(ctx, userID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started.Load(),
		"dimensions":    len(s.dimensions),
		"rebuildQueue":  0,
		"dedupeEntries": int64(0),
	}
	if s.started.Load() {
		stats["rebuildQueue"] = s.rebuildQ.Len(context.Background())
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}
