package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// retrieveRankings retrieves the overall ranking for all users concurrently.
func retrieveRankings(ctx context.Context, config *Config, users []string, stats *Stats) (map[string][]Entry, error) {
	log.Printf("🏆 Retrieving rankings for %d users with %d workers...", len(users), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		mu       sync.Mutex
		rankings = make(map[string][]Entry, len(users))

		retrieved int64
		failed    int64
	)

	userChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for user := range userChan {
				select {
				case <-ctx.Done():
					return
				default:
					entries, err := retrieveSingleRanking(ctx, client, config.BaseURL, user)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get ranking for %s: %v", user, err)
						}
						continue
					}
					mu.Lock()
					rankings[user] = entries
					mu.Unlock()
					atomic.AddInt64(&retrieved, 1)
				}
			}
		}()
	}

	go func() {
		defer close(userChan)
		for _, u := range users {
			select {
			case <-ctx.Done():
				return
			case userChan <- u:
			}
		}
	}()

	wg.Wait()

	stats.RankingsRetrieved = int(atomic.LoadInt64(&retrieved))

	log.Printf(`✅ Ranking retrieval completed:
   Retrieved: %d
   Failed: %d
`, stats.RankingsRetrieved, int(atomic.LoadInt64(&failed)))

	return rankings, nil
}

// retrieveSingleRanking retrieves the overall ranking for one user.
func retrieveSingleRanking(ctx context.Context, client *HTTPClient, baseURL, userID string) ([]Entry, error) {
	url := fmt.Sprintf("%s/rankings/%s", baseURL, userID)

	resp, err := client.Get(ctx, url)
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

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return entries, nil
}

// retrieveScores fetches all adjusted score rows for one user.
func retrieveScores(ctx context.Context, client *HTTPClient, baseURL, userID string) ([]Score, error) {
	url := fmt.Sprintf("%s/scores?user_id=%s", baseURL, userID)

	resp, err := client.Get(ctx, url)
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

	var scores []Score
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return scores, nil
}
