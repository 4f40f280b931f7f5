package repository

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "games: catalog entries",
		SQL: `
CREATE TABLE games (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    year_published INTEGER NOT NULL DEFAULT 0,
    min_players    INTEGER NOT NULL DEFAULT 0,
    max_players    INTEGER NOT NULL DEFAULT 0,
    playtime       TEXT NOT NULL DEFAULT '',
    complexity     REAL NOT NULL DEFAULT 0
);
`,
	},
	{
		Version:     2,
		Description: "collections: per-user candidate pools",
		SQL: `
CREATE TABLE collections (
    user_id  TEXT NOT NULL,
    item_id  TEXT NOT NULL,
    added_at INTEGER NOT NULL,

    PRIMARY KEY (user_id, item_id),
    FOREIGN KEY (item_id) REFERENCES games(id)
);

CREATE INDEX idx_collections_user ON collections(user_id, added_at);
`,
	},
	{
		Version:     3,
		Description: "comparisons: append-only pairwise choice log",
		SQL: `
CREATE TABLE comparisons (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    dimension_id   TEXT NOT NULL,
    item_a_id      TEXT NOT NULL,
    item_b_id      TEXT NOT NULL,
    chosen_item_id TEXT NOT NULL,
    at_epoch_ms    INTEGER NOT NULL
);

CREATE INDEX idx_comparisons_key ON comparisons(user_id, dimension_id, at_epoch_ms DESC);
`,
	},
	{
		Version:     4,
		Description: "adjusted_scores + adjusted_rankings: derived, fully-replaced state",
		SQL: `
CREATE TABLE adjusted_scores (
    user_id      TEXT NOT NULL,
    item_id      TEXT NOT NULL,
    dimension_id TEXT NOT NULL,
    score        REAL NOT NULL,
    frequency    INTEGER NOT NULL,

    PRIMARY KEY (user_id, item_id, dimension_id)
);

CREATE INDEX idx_scores_user ON adjusted_scores(user_id);

CREATE TABLE adjusted_rankings (
    user_id          TEXT NOT NULL,
    item_id          TEXT NOT NULL,
    normalized_score REAL NOT NULL,
    rank_position    INTEGER NOT NULL,

    PRIMARY KEY (user_id, item_id)
);

CREATE INDEX idx_rankings_user ON adjusted_rankings(user_id, rank_position);
`,
	},
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
