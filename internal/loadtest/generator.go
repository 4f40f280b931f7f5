package loadtest

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/meeplerank/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Catalog flavor pools. Names are synthetic but look like a shelf.
var (
	namePrefixes = []string{"Lost", "Iron", "Crimson", "Ancient", "Twilight", "Golden", "Silent", "Storm", "Emerald", "Hidden"}
	nameSuffixes = []string{"Empire", "Harbor", "Caravan", "Citadel", "Expedition", "Dynasty", "Frontier", "Bazaar", "Kingdom", "Voyage"}
	playtimes    = []string{"30 min", "45 min", "60 min", "90 min", "120 min", "180 min"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIndex returns a random int in [0, n).
func randomIndex(n int) int {
	if n <= 1 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// Game is one seeded catalog entry.
type Game struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	YearPublished int     `json:"year_published"`
	MinPlayers    int     `json:"min_players"`
	MaxPlayers    int     `json:"max_players"`
	Playtime      string  `json:"playtime"`
	Complexity    float64 `json:"complexity"`
}

// generateCatalog creates the game catalog to seed.
func generateCatalog(ctx context.Context, config *Config) []Game {
	logger.Get().Info(ctx, "generating catalog", logger.Int("numGames", config.NumGames))

	games := make([]Game, config.NumGames)
	for i := range games {
		games[i] = Game{
			ID:            "game-" + strconv.Itoa(i+1),
			Name:          namePrefixes[randomIndex(len(namePrefixes))] + " " + nameSuffixes[randomIndex(len(nameSuffixes))] + " " + strconv.Itoa(i+1),
			YearPublished: 1995 + randomIndex(30),
			MinPlayers:    1 + randomIndex(3),
			MaxPlayers:    3 + randomIndex(4),
			Playtime:      playtimes[randomIndex(len(playtimes))],
			Complexity:    1.0 + getRandomFloat()*4.0,
		}
	}
	return games
}

// generateComparisons creates the comparison stream. Each user compares pairs
// drawn from their own collection so every submission is schedulable. A
// configured fraction reuses an earlier submission ID to exercise idempotency.
func generateComparisons(ctx context.Context, config *Config, collections map[string][]string, dimensions []Dimension, stats *Stats) []Comparison {
	logger.Get().Info(ctx, "generating comparisons",
		logger.Int("numComparisons", config.NumComparisons),
		logger.Int("numUsers", len(collections)))

	users := make([]string, 0, len(collections))
	for u := range collections {
		users = append(users, u)
	}

	comparisons := make([]Comparison, 0, config.NumComparisons)
	for i := 0; i < config.NumComparisons; i++ {
		user := users[randomIndex(len(users))]
		items := collections[user]
		if len(items) < 2 {
			continue
		}

		ai := randomIndex(len(items))
		bi := randomIndex(len(items) - 1)
		if bi >= ai {
			bi++
		}
		a, b := items[ai], items[bi]

		dim := dimensions[randomIndex(len(dimensions))].ID

		// Bias the winner toward the lexicographically smaller ID so the
		// final rankings have a verifiable shape instead of pure noise.
		chosen := a
		if a > b {
			chosen = b
		}
		switch {
		case getRandomFloat() < config.TieRate:
			chosen = ""
		case getRandomFloat() < 0.25:
			// Upsets keep the stream realistic.
			if chosen == a {
				chosen = b
			} else {
				chosen = a
			}
		}

		c := Comparison{
			SubmissionID: uuid.New().String(),
			UserID:       user,
			DimensionID:  dim,
			ItemAID:      a,
			ItemBID:      b,
			ChosenItemID: chosen,
		}
		comparisons = append(comparisons, c)

		// Replay a previous submission verbatim at the configured rate.
		if len(comparisons) > 1 && getRandomFloat() < config.DuplicateRate {
			comparisons = append(comparisons, comparisons[randomIndex(len(comparisons)-1)])
		}
	}

	stats.ComparisonsGenerated = len(comparisons)
	logger.Get().Info(ctx, "generated comparisons", logger.Int("count", len(comparisons)))
	return comparisons
}

// assignCollections deals each simulated user a random slice of the catalog.
func assignCollections(config *Config, games []Game) map[string][]string {
	collections := make(map[string][]string, config.NumUsers)
	for u := 0; u < config.NumUsers; u++ {
		user := "user-" + strconv.Itoa(u+1)
		size := config.CollectionSize
		if size > len(games) {
			size = len(games)
		}

		// Partial Fisher-Yates over a copy of the IDs.
		ids := make([]string, len(games))
		for i, g := range games {
			ids[i] = g.ID
		}
		for i := 0; i < size; i++ {
			j := i + randomIndex(len(ids)-i)
			ids[i], ids[j] = ids[j], ids[i]
		}
		collections[user] = ids[:size]
	}
	return collections
}
