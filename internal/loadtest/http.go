package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// seedCatalog creates the games and deals them into user collections.
func seedCatalog(ctx context.Context, config *Config, games []Game, collections map[string][]string, stats *Stats) error {
	log.Printf("🎲 Seeding %d games and %d collections...", len(games), len(collections))

	client := newHTTPClient(config.Timeout)

	for _, g := range games {
		resp, err := client.Post(ctx, config.BaseURL+"/games", g)
		if err != nil {
			return fmt.Errorf("seed game %s: %w", g.ID, err)
		}
		_, _ = readResponseBody(resp)
		if resp.StatusCode != StatusCreated {
			return fmt.Errorf("seed game %s: HTTP %d", g.ID, resp.StatusCode)
		}
		stats.GamesSeeded++
	}

	type addRequest struct {
		ItemID string `json:"item_id"`
	}
	for user, items := range collections {
		for _, item := range items {
			resp, err := client.Post(ctx, config.BaseURL+"/collections/"+user, addRequest{ItemID: item})
			if err != nil {
				return fmt.Errorf("add %s to %s: %w", item, user, err)
			}
			_, _ = readResponseBody(resp)
			if resp.StatusCode != http.StatusNoContent {
				return fmt.Errorf("add %s to %s: HTTP %d", item, user, resp.StatusCode)
			}
		}
	}

	log.Printf("✅ Seeded %d games across %d collections", stats.GamesSeeded, len(collections))
	return nil
}

// fetchDimensions asks the service for its configured comparison axes.
func fetchDimensions(ctx context.Context, config *Config) ([]Dimension, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/dimensions")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var dims []Dimension
	if err := json.Unmarshal(body, &dims); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("service reports no dimensions")
	}
	return dims, nil
}

// submitComparisons submits comparisons concurrently using worker pools
func submitComparisons(ctx context.Context, config *Config, comparisons []Comparison, stats *Stats) error {
	log.Printf("📤 Submitting %d comparisons with %d workers...", len(comparisons), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/comparisons"

	// Counters for statistics
	var (
		recorded  int64
		duplicate int64
		failed    int64
		submitted int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	compChan := make(chan Comparison, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for c := range compChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleComparison(ctx, client, url, c)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "recorded":
						atomic.AddInt64(&recorded, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						rec := atomic.LoadInt64(&recorded)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (recorded: %d, duplicate: %d, failed: %d)",
								total, len(comparisons), rec, dup, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (recorded: %d, duplicate: %d, failed: %d)",
								total, len(comparisons), rec, dup, fail)
						}
					}
				}
			}
		}()
	}

	// Send comparisons to workers
	go func() {
		defer close(compChan)
		for _, c := range comparisons {
			select {
			case <-ctx.Done():
				return
			case compChan <- c:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ComparisonsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ComparisonsRecorded = int(atomic.LoadInt64(&recorded))
	stats.ComparisonsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ComparisonsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Comparison submission completed:
   Recorded: %d
   Duplicate: %d
   Failed: %d
`, stats.ComparisonsRecorded, stats.ComparisonsDuplicate, stats.ComparisonsFailed)

	return nil
}

// submitSingleComparison submits a single comparison and returns the result
func submitSingleComparison(ctx context.Context, client *HTTPClient, url string, c Comparison) string {
	resp, err := client.Post(ctx, url, c)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusCreated:
		return "recorded"
	case StatusOK:
		var ack SubmitResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate" // Assume duplicate for 200 even if parsing fails
	default:
		return "failed"
	}
}
