package server

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// libSQL surfaces SQLite errors as plain messages, so match the text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) SportExistsByNameOrSlug(ctx context.Context, name, slug string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM sports WHERE name = ? OR slug = ?
	`, name, slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) CreateSport(ctx context.Context, name, slug string) (Sport, error) {
	var sp Sport
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sports (name, slug)
		VALUES (?, ?)
		RETURNING id, name, slug, created_at
	`, name, slug).Scan(&sp.ID, &sp.Name, &sp.Slug, &sp.CreatedAt)
	return sp, err
}

func (s *SQLiteStore) ListSports(ctx context.Context) ([]Sport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, created_at FROM sports ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sports []Sport
	for rows.Next() {
		var sp Sport
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Slug, &sp.CreatedAt); err != nil {
			return nil, err
		}
		sports = append(sports, sp)
	}
	return sports, rows.Err()
}

func (s *SQLiteStore) SportExists(ctx context.Context, sportID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM sports WHERE id = ?
	`, sportID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) CreateGame(ctx context.Context, sportID, teamAName, teamBName string) (Game, error) {
	var g Game
	var startTime sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO games (sport_id, team_a_name, team_b_name)
		VALUES (?, ?, ?)
		RETURNING id, sport_id, team_a_name, team_b_name, status, start_time, created_at
	`, sportID, teamAName, teamBName).Scan(
		&g.ID, &g.SportID, &g.TeamAName, &g.TeamBName, &g.Status, &startTime, &g.CreatedAt,
	)
	if startTime.Valid {
		g.StartTime = &startTime.String
	}
	return g, err
}

func (s *SQLiteStore) ListGames(ctx context.Context, sportID string) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sport_id, team_a_name, team_b_name, status, start_time, created_at
		FROM games
		WHERE sport_id = ?
		ORDER BY created_at, rowid
	`, sportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		var startTime sql.NullString
		if err := rows.Scan(&g.ID, &g.SportID, &g.TeamAName, &g.TeamBName, &g.Status, &startTime, &g.CreatedAt); err != nil {
			return nil, err
		}
		if startTime.Valid {
			g.StartTime = &startTime.String
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (s *SQLiteStore) GetGame(ctx context.Context, gameID string) (Game, error) {
	var g Game
	var startTime sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sport_id, team_a_name, team_b_name, status, start_time, created_at
		FROM games
		WHERE id = ?
	`, gameID).Scan(&g.ID, &g.SportID, &g.TeamAName, &g.TeamBName, &g.Status, &startTime, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	if startTime.Valid {
		g.StartTime = &startTime.String
	}
	return g, err
}

func (s *SQLiteStore) GameExists(ctx context.Context, gameID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM games WHERE id = ?
	`, gameID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, gameID, team string, minute int, description string) (Event, error) {
	var ev Event
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO events (game_id, team, minute, description)
		VALUES (?, ?, ?, ?)
		RETURNING id, game_id, team, minute, description, created_at
	`, gameID, team, minute, description).Scan(
		&ev.ID, &ev.GameID, &ev.Team, &ev.Minute, &ev.Description, &ev.CreatedAt,
	)
	return ev, err
}

func (s *SQLiteStore) ListEvents(ctx context.Context, gameID string) ([]Event, error) {
	// rowid breaks ties between events created within the same millisecond.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, team, minute, description, created_at
		FROM events
		WHERE game_id = ?
		ORDER BY created_at, rowid
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.GameID, &ev.Team, &ev.Minute, &ev.Description, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
