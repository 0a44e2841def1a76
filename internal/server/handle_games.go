package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type CreateGameRequest struct {
	SportID   string `json:"sport_id"`
	TeamAName string `json:"team_a_name"`
	TeamBName string `json:"team_b_name"`
}

// GameStateResponse is a game plus its full play-by-play history, oldest
// event first.
type GameStateResponse struct {
	Game
	Events []Event `json:"events"`
}

func handleListGames(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sportID := chi.URLParam(r, "sportID")

		exists, err := store.SportExists(r.Context(), sportID)
		if err != nil {
			logger.Error("checking sport", "sport_id", sportID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "sport not found")
			return
		}

		games, err := store.ListGames(r.Context(), sportID)
		if err != nil {
			logger.Error("listing games", "sport_id", sportID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if games == nil {
			games = []Game{}
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func handleCreateGame(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.TeamAName = strings.TrimSpace(req.TeamAName)
		req.TeamBName = strings.TrimSpace(req.TeamBName)
		if req.SportID == "" || req.TeamAName == "" || req.TeamBName == "" {
			writeError(w, http.StatusBadRequest, "sport_id, team_a_name and team_b_name are required")
			return
		}

		exists, err := store.SportExists(r.Context(), req.SportID)
		if err != nil {
			logger.Error("checking sport", "sport_id", req.SportID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "sport not found")
			return
		}

		game, err := store.CreateGame(r.Context(), req.SportID, req.TeamAName, req.TeamBName)
		if err != nil {
			logger.Error("creating game", "sport_id", req.SportID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, game)
	}
}

func handleGameState(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		game, err := store.GetGame(r.Context(), gameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			logger.Error("loading game", "game_id", gameID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		events, err := store.ListEvents(r.Context(), gameID)
		if err != nil {
			logger.Error("listing events", "game_id", gameID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if events == nil {
			events = []Event{}
		}

		writeJSON(w, http.StatusOK, GameStateResponse{Game: game, Events: events})
	}
}
