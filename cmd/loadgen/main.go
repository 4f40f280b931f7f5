package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/meeplerank/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumUsers       = 20
	defaultNumGames       = 100
	defaultCollectionSize = 25
	defaultNumComparisons = 10000
	defaultDuplicateRate  = 0.05
	defaultTieRate        = 0.1
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9090", "Base URL of the service")
		numUsers       = flag.Int("users", defaultNumUsers, "Number of users to simulate")
		numGames       = flag.Int("games", defaultNumGames, "Catalog size to seed")
		collectionSize = flag.Int("collection", defaultCollectionSize, "Games per user collection")
		numComparisons = flag.Int("comparisons", defaultNumComparisons, "Total comparisons to submit")
		duplicateRate  = flag.Float64("duplicates", defaultDuplicateRate, "Fraction of submissions replayed with a seen submission ID")
		tieRate        = flag.Float64("ties", defaultTieRate, "Fraction of submissions recorded as ties")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile     = flag.String("output", "", "Output file for generated comparisons (default: generated_comparisons_TIMESTAMP.json)")
		logFile        = flag.String("log", "", "Log file for test output (default: loadtest_log_TIMESTAMP.log)")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	// Setup logging
	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadtest.Config{
		BaseURL:        *baseURL,
		NumUsers:       *numUsers,
		NumGames:       *numGames,
		CollectionSize: *collectionSize,
		NumComparisons: *numComparisons,
		DuplicateRate:  *duplicateRate,
		TieRate:        *tieRate,
		Workers:        *workers,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	// Run the test
	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
