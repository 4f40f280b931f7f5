// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/meeplerank/internal/adapters/repository"
	"github.com/okian/meeplerank/internal/domain/model"
)

// GameDependencies defines the interface for catalog operations.
type GameDependencies interface {
	AddGame(ctx context.Context, g model.Game) error
	Game(ctx context.Context, id string) (model.Game, error)
	Games(ctx context.Context) ([]model.Game, error)
}

// GamesHandler handles catalog requests.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// gameBody mirrors the OpenAPI schema for a catalog entry.
type gameBody struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	YearPublished int     `json:"year_published,omitempty"`
	MinPlayers    int     `json:"min_players,omitempty"`
	MaxPlayers    int     `json:"max_players,omitempty"`
	Playtime      string  `json:"playtime,omitempty"`
	Complexity    float64 `json:"complexity,omitempty"`
}

func (g gameBody) validate() error {
	switch {
	case strings.TrimSpace(g.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(g.Name) == "":
		return errors.New("missing name")
	}
	return nil
}

func toGameBody(g model.Game) gameBody {
	return gameBody{
		ID:            g.ID,
		Name:          g.Name,
		YearPublished: g.YearPublished,
		MinPlayers:    g.MinPlayers,
		MaxPlayers:    g.MaxPlayers,
		Playtime:      g.Playtime,
		Complexity:    g.Complexity,
	}
}

// HandleGames handles GET /games and POST /games requests.
func (h *GamesHandler) HandleGames(w http.ResponseWriter, r *http.Request) {
	const op = "api.games"
	switch r.Method {
	case http.MethodGet:
		games, err := h.deps.Games(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		out := make([]gameBody, 0, len(games))
		for _, g := range games {
			out = append(out, toGameBody(g))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req gameBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		g := model.Game{
			ID:            req.ID,
			Name:          req.Name,
			YearPublished: req.YearPublished,
			MinPlayers:    req.MinPlayers,
			MaxPlayers:    req.MaxPlayers,
			Playtime:      req.Playtime,
			Complexity:    req.Complexity,
		}
		if err := h.deps.AddGame(r.Context(), g); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, toGameBody(g))
	default:
		http.NotFound(w, r)
	}
}

// HandleGetGame handles GET /games/{id} requests.
func (h *GamesHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/games/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	g, err := h.deps.Game(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toGameBody(g))
}
