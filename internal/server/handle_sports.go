package server

import (
	"log/slog"
	"net/http"
	"strings"
)

type CreateSportRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func handleListSports(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sports, err := store.ListSports(r.Context())
		if err != nil {
			logger.Error("listing sports", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sports == nil {
			sports = []Sport{}
		}
		writeJSON(w, http.StatusOK, sports)
	}
}

func handleCreateSport(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSportRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Slug = strings.TrimSpace(req.Slug)
		if req.Name == "" || req.Slug == "" {
			writeError(w, http.StatusBadRequest, "name and slug are required")
			return
		}

		exists, err := store.SportExistsByNameOrSlug(r.Context(), req.Name, req.Slug)
		if err != nil {
			logger.Error("checking sport uniqueness", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if exists {
			writeError(w, http.StatusBadRequest, "sport with this name or slug already exists")
			return
		}

		sport, err := store.CreateSport(r.Context(), req.Name, req.Slug)
		if isUniqueViolation(err) {
			// A concurrent create can slip past the existence check; the
			// constraint catches it and it is still a duplicate to the caller.
			writeError(w, http.StatusBadRequest, "sport with this name or slug already exists")
			return
		}
		if err != nil {
			logger.Error("creating sport", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, sport)
	}
}
