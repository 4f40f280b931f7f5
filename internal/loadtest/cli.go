package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/meeplerank/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`MeepleRank Load Generator
=========================

A concurrent tool for exercising the pairwise comparison API end to end:
it seeds a game catalog and user collections, streams comparisons, then
verifies score bounds and ranking density.

Usage:
  go run cmd/loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9090")
  -users int
        Number of users to simulate (default 20)
  -games int
        Catalog size to seed (default 100)
  -collection int
        Games per user collection (default 25)
  -comparisons int
        Total comparisons to submit (default 10000)
  -duplicates float
        Fraction of submissions replayed with a seen submission ID (default 0.05)
  -ties float
        Fraction of submissions recorded as ties (default 0.1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated comparisons (default: generated_comparisons_TIMESTAMP.json)
  -log string
        Log file for test output (default: loadtest_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/loadgen/main.go

  # Heavier run against a remote instance
  go run cmd/loadgen/main.go -comparisons 50000 -workers 16 -url http://localhost:8080

  # Reproducible output file for later replay
  go run cmd/loadgen/main.go -comparisons 10000 -output run1.json
`)
}
