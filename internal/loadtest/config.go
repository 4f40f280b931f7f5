package loadtest

import "time"

// Config holds configuration for one load test run
type Config struct {
	BaseURL        string        // Base URL of the service
	NumUsers       int           // Number of users to simulate
	NumGames       int           // Catalog size seeded before the run
	CollectionSize int           // Games added to each user's collection
	NumComparisons int           // Comparisons to submit across all users
	DuplicateRate  float64       // Fraction of submissions replayed with a seen submission ID
	TieRate        float64       // Fraction of submissions recorded as ties
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Output file for generated comparisons
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Comparison is one generated submission
type Comparison struct {
	SubmissionID string `json:"submission_id"`
	UserID       string `json:"user_id"`
	DimensionID  string `json:"dimension_id"`
	ItemAID      string `json:"item_a_id"`
	ItemBID      string `json:"item_b_id"`
	ChosenItemID string `json:"chosen_item_id"`
}

// Entry represents one overall ranking row
type Entry struct {
	Position int     `json:"position"`
	ItemID   string  `json:"item_id"`
	Score    float64 `json:"score"`
}

// Score represents one adjusted per-dimension score row
type Score struct {
	ItemID      string  `json:"item_id"`
	DimensionID string  `json:"dimension_id"`
	Score       float64 `json:"score"`
	Frequency   int     `json:"frequency"`
}

// Dimension mirrors the /dimensions response shape
type Dimension struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// SubmitResponse represents the response from comparison submission
type SubmitResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	GamesSeeded          int
	ComparisonsGenerated int
	ComparisonsSubmitted int
	ComparisonsRecorded  int
	ComparisonsDuplicate int
	ComparisonsFailed    int
	RankingsRetrieved    int
	ScoreRowsChecked     int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
