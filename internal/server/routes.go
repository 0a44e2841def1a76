package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, opts Options) {
	store := NewSQLiteStore(db)
	registry := NewRegistry(logger)
	dispatcher := NewDispatcher(registry, logger, opts.WriteTimeout)

	r.Get("/", handleRoot())
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Scoreboard API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))
	r.Get("/stats", handleStats(registry, dispatcher))

	r.Get("/sports", handleListSports(logger, store))
	r.Post("/sports", handleCreateSport(logger, store))
	r.Get("/sports/{sportID}/games", handleListGames(logger, store))
	r.Post("/games", handleCreateGame(logger, store))
	r.Get("/games/{gameID}", handleGameState(logger, store))
	r.Post("/games/{gameID}/events", handleCreateEvent(logger, store, dispatcher))

	r.Get("/ws/games/{gameID}", handleSubscribe(logger, store, registry, opts))

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}

func handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Real-Time Scoreboard API",
			"version": "1.0.0",
			"docs":    "/docs",
		})
	}
}
