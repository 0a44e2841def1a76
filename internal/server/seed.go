package server

import (
	"context"
	"log/slog"
)

// SeedDemo creates a demo sport and game if the store holds no sports.
// Idempotent: does nothing otherwise.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store) error {
	sports, err := store.ListSports(ctx)
	if err != nil {
		return err
	}
	if len(sports) > 0 {
		return nil
	}

	sport, err := store.CreateSport(ctx, "Soccer", "soccer")
	if err != nil {
		return err
	}
	game, err := store.CreateGame(ctx, sport.ID, "Home", "Away")
	if err != nil {
		return err
	}

	logger.Info("demo sport and game created", "sport_id", sport.ID, "game_id", game.ID)
	return nil
}
