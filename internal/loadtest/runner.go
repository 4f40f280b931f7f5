package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/meeplerank/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting meeplerank load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.NumUsers),
		logger.Int("games", config.NumGames),
		logger.Int("comparisons", config.NumComparisons),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Discover the configured dimensions
	dimensions, err := fetchDimensions(ctx, config)
	if err != nil {
		return fmt.Errorf("dimension discovery failed: %w", err)
	}

	// Step 3: Seed the catalog and collections
	games := generateCatalog(ctx, config)
	collections := assignCollections(config, games)
	if err := seedCatalog(ctx, config, games, collections, stats); err != nil {
		return fmt.Errorf("catalog seeding failed: %w", err)
	}

	// Step 4: Generate and submit the comparison stream
	comparisons := generateComparisons(ctx, config, collections, dimensions, stats)
	if err := submitComparisons(ctx, config, comparisons, stats); err != nil {
		return fmt.Errorf("comparison submission failed: %w", err)
	}

	// Step 5: Retrieve rankings. Recomputes are synchronous so the derived
	// state is already consistent with the submitted log.
	users := make([]string, 0, len(collections))
	for u := range collections {
		users = append(users, u)
	}
	rankings, err := retrieveRankings(ctx, config, users, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	// Step 6: Verify structural guarantees
	if err := verifyResults(ctx, config, rankings, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save comparisons to file
	if err := saveComparisonsToFile(ctx, config, comparisons); err != nil {
		logger.Get().Warn(ctx, "failed to save comparisons to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveComparisonsToFile saves the generated comparisons to a JSON file.
func saveComparisonsToFile(ctx context.Context, config *Config, comparisons []Comparison) error {
	if len(comparisons) == 0 {
		return fmt.Errorf("no comparisons to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_comparisons_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(comparisons); err != nil {
		return fmt.Errorf("failed to write comparisons: %w", err)
	}

	logger.Get().Info(ctx, "comparisons saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var recordRate, comparisonsPerSecond float64

	if stats.ComparisonsSubmitted > 0 {
		recordRate = float64(stats.ComparisonsRecorded) / float64(stats.ComparisonsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		comparisonsPerSecond = float64(stats.ComparisonsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("gamesSeeded", stats.GamesSeeded),
		logger.Int("comparisonsGenerated", stats.ComparisonsGenerated),
		logger.Int("comparisonsSubmitted", stats.ComparisonsSubmitted),
		logger.Int("comparisonsRecorded", stats.ComparisonsRecorded),
		logger.Int("comparisonsDuplicate", stats.ComparisonsDuplicate),
		logger.Int("comparisonsFailed", stats.ComparisonsFailed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("scoreRowsChecked", stats.ScoreRowsChecked),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("recordRate", recordRate),
		logger.Float64("comparisonsPerSecond", comparisonsPerSecond))
}
