package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Sport is a category of games, e.g. {name: "Soccer", slug: "soccer"}.
type Sport struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"created_at"`
}

type Game struct {
	ID        string  `json:"id"`
	SportID   string  `json:"sport_id"`
	TeamAName string  `json:"team_a_name"`
	TeamBName string  `json:"team_b_name"`
	Status    string  `json:"status"`
	StartTime *string `json:"start_time"`
	CreatedAt string  `json:"created_at"`
}

// Event is one play-by-play entry. Immutable once appended.
type Event struct {
	ID          string `json:"id"`
	GameID      string `json:"game_id"`
	Team        string `json:"team"`
	Minute      int    `json:"minute"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type Store interface {
	SportExistsByNameOrSlug(ctx context.Context, name, slug string) (bool, error)
	CreateSport(ctx context.Context, name, slug string) (Sport, error)
	ListSports(ctx context.Context) ([]Sport, error)
	SportExists(ctx context.Context, sportID string) (bool, error)

	CreateGame(ctx context.Context, sportID, teamAName, teamBName string) (Game, error)
	ListGames(ctx context.Context, sportID string) ([]Game, error)
	GetGame(ctx context.Context, gameID string) (Game, error)
	GameExists(ctx context.Context, gameID string) (bool, error)

	// AppendEvent persists a new event; ListEvents returns a game's events
	// in append order.
	AppendEvent(ctx context.Context, gameID, team string, minute int, description string) (Event, error)
	ListEvents(ctx context.Context, gameID string) ([]Event, error)
}
