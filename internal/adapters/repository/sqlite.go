package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/pkg/metrics"
)

// SQLiteStore is the durable Store backed by a single SQLite file. Derived
// rows are replaced inside one transaction per key, which gives the
// serializable replace-upsert the engine relies on.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path, configures pragmas, and
// runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.configurePragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenSQLiteMemory opens an in-memory database for testing.
func OpenSQLiteMemory() (*SQLiteStore, error) {
	return OpenSQLite(":memory:")
}

func (s *SQLiteStore) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) AppendComparison(ctx context.Context, c model.Comparison) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comparisons (id, user_id, dimension_id, item_a_id, item_b_id, chosen_item_id, at_epoch_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.DimensionID, c.ItemAID, c.ItemBID, c.ChosenItemID, c.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("append comparison: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListComparisons(ctx context.Context, userID, dimensionID string) ([]model.Comparison, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, dimension_id, item_a_id, item_b_id, chosen_item_id, at_epoch_ms
		FROM comparisons WHERE user_id = ? AND dimension_id = ?
		ORDER BY at_epoch_ms DESC, id DESC
	`, userID, dimensionID)
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	defer rows.Close()

	var out []model.Comparison
	for rows.Next() {
		var c model.Comparison
		var atMs int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.DimensionID, &c.ItemAID, &c.ItemBID, &c.ChosenItemID, &atMs); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		c.At = time.UnixMilli(atMs).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ComparisonStats(ctx context.Context, userID, dimensionID string) (map[string]ItemStats, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, COUNT(*), MAX(at_epoch_ms) FROM (
			SELECT item_a_id AS item_id, at_epoch_ms FROM comparisons WHERE user_id = ? AND dimension_id = ?
			UNION ALL
			SELECT item_b_id AS item_id, at_epoch_ms FROM comparisons WHERE user_id = ? AND dimension_id = ?
		) GROUP BY item_id
	`, userID, dimensionID, userID, dimensionID)
	if err != nil {
		return nil, fmt.Errorf("comparison stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]ItemStats)
	for rows.Next() {
		var itemID string
		var count int
		var lastMs int64
		if err := rows.Scan(&itemID, &count, &lastMs); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[itemID] = ItemStats{Comparisons: count, LastCompared: time.UnixMilli(lastMs).UTC()}
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) ReplaceDimensionScores(ctx context.Context, userID, dimensionID string, scores []model.AdjustedScore) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace scores: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM adjusted_scores WHERE user_id = ? AND dimension_id = ?",
		userID, dimensionID,
	); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	for _, sc := range scores {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO adjusted_scores (user_id, item_id, dimension_id, score, frequency)
			VALUES (?, ?, ?, ?, ?)
		`, userID, sc.ItemID, dimensionID, sc.Score, sc.Frequency); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace scores: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListDimensionScores(ctx context.Context, userID, dimensionID string) ([]model.AdjustedScore, error) {
	return s.queryScores(ctx, `
		SELECT user_id, item_id, dimension_id, score, frequency
		FROM adjusted_scores WHERE user_id = ? AND dimension_id = ?
		ORDER BY item_id
	`, userID, dimensionID)
}

func (s *SQLiteStore) ListScores(ctx context.Context, userID string) ([]model.AdjustedScore, error) {
	return s.queryScores(ctx, `
		SELECT user_id, item_id, dimension_id, score, frequency
		FROM adjusted_scores WHERE user_id = ?
		ORDER BY dimension_id, item_id
	`, userID)
}

func (s *SQLiteStore) queryScores(ctx context.Context, q string, args ...any) ([]model.AdjustedScore, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []model.AdjustedScore
	for rows.Next() {
		var sc model.AdjustedScore
		if err := rows.Scan(&sc.UserID, &sc.ItemID, &sc.DimensionID, &sc.Score, &sc.Frequency); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplaceRanking(ctx context.Context, userID string, entries []model.RankEntry) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace ranking: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM adjusted_rankings WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear ranking: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO adjusted_rankings (user_id, item_id, normalized_score, rank_position)
			VALUES (?, ?, ?, ?)
		`, userID, e.ItemID, e.Score, e.Position); err != nil {
			return fmt.Errorf("insert ranking row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace ranking: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRanking(ctx context.Context, userID string) ([]model.RankEntry, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, normalized_score, rank_position
		FROM adjusted_rankings WHERE user_id = ?
		ORDER BY rank_position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("get ranking: %w", err)
	}
	defer rows.Close()

	var out []model.RankEntry
	for rows.Next() {
		var e model.RankEntry
		if err := rows.Scan(&e.ItemID, &e.Score, &e.Position); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddToCollection(ctx context.Context, userID, itemID string) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	if _, err := s.GetGame(ctx, itemID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (user_id, item_id, added_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, item_id) DO NOTHING
	`, userID, itemID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("add to collection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCollection(ctx context.Context, userID string) ([]string, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id FROM collections WHERE user_id = ? ORDER BY added_at, item_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PutGame(ctx context.Context, g model.Game) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds())) }()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, name, year_published, min_players, max_players, playtime, complexity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			year_published = excluded.year_published,
			min_players = excluded.min_players,
			max_players = excluded.max_players,
			playtime = excluded.playtime,
			complexity = excluded.complexity
	`, g.ID, g.Name, g.YearPublished, g.MinPlayers, g.MaxPlayers, g.Playtime, g.Complexity)
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGame(ctx context.Context, id string) (model.Game, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	var g model.Game
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, year_published, min_players, max_players, playtime, complexity
		FROM games WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.YearPublished, &g.MinPlayers, &g.MaxPlayers, &g.Playtime, &g.Complexity)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, ErrNotFound
	}
	if err != nil {
		return model.Game{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) ListGames(ctx context.Context) ([]model.Game, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, year_published, min_players, max_players, playtime, complexity
		FROM games ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.YearPublished, &g.MinPlayers, &g.MaxPlayers, &g.Playtime, &g.Complexity); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
