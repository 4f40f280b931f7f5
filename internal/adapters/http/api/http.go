// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/meeplerank/internal/app"
	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Pair scheduling and comparison recording.
	NextPair(ctx context.Context, userID, dimensionID string) (model.Candidate, model.Candidate, error)
	SubmitComparison(ctx context.Context, sub app.Submission) (model.Comparison, bool, error)

	// Read operations expose derived ranking state.
	Ranking(ctx context.Context, userID string) ([]model.RankEntry, error)
	DimensionScores(ctx context.Context, userID, dimensionID string) ([]model.AdjustedScore, error)
	Scores(ctx context.Context, userID string) ([]model.AdjustedScore, error)
	Dimensions() []model.Dimension

	// Catalog and collection management.
	AddGame(ctx context.Context, g model.Game) error
	Game(ctx context.Context, id string) (model.Game, error)
	Games(ctx context.Context) ([]model.Game, error)
	AddToCollection(ctx context.Context, userID, itemID string) error
	Collection(ctx context.Context, userID string) ([]string, error)

	// Resync enqueues a full rebuild of a user's derived state.
	// Returns false on backpressure.
	Resync(ctx context.Context, userID string) bool
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	pairsHandler       *PairsHandler
	comparisonsHandler *ComparisonsHandler
	rankingsHandler    *RankingsHandler
	scoresHandler      *ScoresHandler
	dimensionsHandler  *DimensionsHandler
	collectionsHandler *CollectionsHandler
	gamesHandler       *GamesHandler
	resyncHandler      *ResyncHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		pairsHandler:       NewPairsHandler(deps),
		comparisonsHandler: NewComparisonsHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps),
		scoresHandler:      NewScoresHandler(deps),
		dimensionsHandler:  NewDimensionsHandler(deps),
		collectionsHandler: NewCollectionsHandler(deps),
		gamesHandler:       NewGamesHandler(deps),
		resyncHandler:      NewResyncHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/pairs", MetricsMiddleware(s.pairsHandler.HandleGetPair, "pairs"))
	mux.HandleFunc("/comparisons", MetricsMiddleware(s.comparisonsHandler.HandlePostComparison, "comparisons"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankingsHandler.HandleGetRanking, "rankings"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores"))
	mux.HandleFunc("/dimensions", MetricsMiddleware(s.dimensionsHandler.HandleGetDimensions, "dimensions"))
	mux.HandleFunc("/collections/", MetricsMiddleware(s.collectionsHandler.HandleCollection, "collections"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandleGames, "games"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.gamesHandler.HandleGetGame, "games"))
	mux.HandleFunc("/resync", MetricsMiddleware(s.resyncHandler.HandlePostResync, "resync"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
