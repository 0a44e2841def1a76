package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type CreateEventRequest struct {
	Team        string `json:"team"`
	Minute      int    `json:"minute"`
	Description string `json:"description"`
}

// handleCreateEvent is the ingestion path: validate, persist, then fan the
// event out to the game's subscribers. Delivery failures stay inside the
// dispatcher; by the time it runs the event is durable, so the caller sees
// 201 regardless of how many subscribers received it.
func handleCreateEvent(logger *slog.Logger, store Store, dispatcher *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req CreateEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Description = strings.TrimSpace(req.Description)
		switch {
		case req.Team != "A" && req.Team != "B":
			writeError(w, http.StatusUnprocessableEntity, "team must be A or B")
			return
		case req.Minute < 0:
			writeError(w, http.StatusUnprocessableEntity, "minute must not be negative")
			return
		case req.Description == "":
			writeError(w, http.StatusUnprocessableEntity, "description is required")
			return
		}

		exists, err := store.GameExists(r.Context(), gameID)
		if err != nil {
			logger.Error("checking game", "game_id", gameID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		event, err := store.AppendEvent(r.Context(), gameID, req.Team, req.Minute, req.Description)
		if err != nil {
			logger.Error("appending event", "game_id", gameID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		dispatcher.Broadcast(r.Context(), gameID, EventMessage{
			EventID:     event.ID,
			GameID:      event.GameID,
			Team:        event.Team,
			Minute:      event.Minute,
			Description: event.Description,
			Timestamp:   event.CreatedAt,
		})

		writeJSON(w, http.StatusCreated, event)
	}
}
