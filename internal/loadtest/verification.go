package loadtest

import (
	"context"
	"fmt"
	"log"
)

// verifyResults checks the engine's structural guarantees against every
// retrieved ranking and score set: rankings are dense 1..N and sorted best
// first, and every adjusted score lies inside the normalization bounds.
func verifyResults(ctx context.Context, config *Config, rankings map[string][]Entry, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(rankings) == 0 {
		return fmt.Errorf("no rankings to verify")
	}

	client := newHTTPClient(config.Timeout)
	var problems int

	for user, entries := range rankings {
		if err := verifyRankingShape(entries); err != nil {
			problems++
			log.Printf("⚠️  Ranking for %s: %v", user, err)
		}

		scores, err := retrieveScores(ctx, client, config.BaseURL, user)
		if err != nil {
			problems++
			log.Printf("⚠️  Scores for %s: %v", user, err)
			continue
		}
		for _, s := range scores {
			stats.ScoreRowsChecked++
			if s.Score < ScoreMin || s.Score > ScoreMax {
				problems++
				log.Printf("⚠️  Score out of bounds for %s: %s/%s = %.3f", user, s.ItemID, s.DimensionID, s.Score)
			}
			if s.Frequency < 0 {
				problems++
				log.Printf("⚠️  Negative frequency for %s: %s/%s = %d", user, s.ItemID, s.DimensionID, s.Frequency)
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d verification problems found", problems)
	}

	displayTopRankings(rankings, config.Verbose)
	log.Println("✅ Result verification completed")
	return nil
}

// verifyRankingShape checks density and ordering of one ranking.
func verifyRankingShape(entries []Entry) error {
	for i, e := range entries {
		if e.Position != i+1 {
			return fmt.Errorf("position %d at index %d; rankings must be dense 1..N", e.Position, i)
		}
		if i > 0 && entries[i].Score > entries[i-1].Score {
			return fmt.Errorf("entry %d has higher score than entry %d; rankings must be sorted best first", i, i-1)
		}
		if e.Score < ScoreMin || e.Score > ScoreMax {
			return fmt.Errorf("entry %d score %.3f outside [%.0f, %.0f]", i, e.Score, ScoreMin, ScoreMax)
		}
	}
	return nil
}

// displayTopRankings shows the head of each user's ranking.
func displayTopRankings(rankings map[string][]Entry, verbose bool) {
	shown := 0
	for user, entries := range rankings {
		if !verbose && shown >= 3 {
			break
		}
		topN := 5
		if len(entries) < topN {
			topN = len(entries)
		}
		log.Printf("🏆 Top %d for %s:", topN, user)
		for i := 0; i < topN; i++ {
			e := entries[i]
			log.Printf("   %d. %s - Score: %.3f", e.Position, e.ItemID, e.Score)
		}
		shown++
	}
}
