package server

import (
	"context"
	"log/slog"
	"sync"
)

// Subscriber is a live connection the registry fans events out to. The
// registry and dispatcher only ever see this interface; the WebSocket
// transport lives behind it.
type Subscriber interface {
	// Send delivers one frame, honoring ctx's deadline.
	Send(ctx context.Context, data []byte) error
	// Close tears down the underlying transport. Best-effort.
	Close()
}

// Registry maps a game ID to its live subscribers, in registration order.
// Safe for concurrent use; one lock guards the whole map, which is fine at
// the contention levels a scoreboard sees.
type Registry struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]Subscriber
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		subs:   make(map[string][]Subscriber),
	}
}

// Register adds sub under gameID, creating the game's entry if absent.
func (r *Registry) Register(gameID string, sub Subscriber) {
	r.mu.Lock()
	r.subs[gameID] = append(r.subs[gameID], sub)
	count := len(r.subs[gameID])
	r.mu.Unlock()

	r.logger.Debug("subscriber registered", "game_id", gameID, "subscribers", count)
}

// Deregister removes sub from gameID's entry. A game with no subscribers
// left is removed entirely. Calling with an unknown game or an already
// removed subscriber is a no-op, so teardown paths may all call it.
func (r *Registry) Deregister(gameID string, sub Subscriber) {
	r.mu.Lock()
	subs, ok := r.subs[gameID]
	if !ok {
		r.mu.Unlock()
		return
	}

	kept := subs[:0]
	for _, s := range subs {
		if s != sub {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(subs) {
		r.mu.Unlock()
		return
	}

	if len(kept) == 0 {
		delete(r.subs, gameID)
	} else {
		r.subs[gameID] = kept
	}
	count := len(kept)
	r.mu.Unlock()

	r.logger.Debug("subscriber deregistered", "game_id", gameID, "subscribers", count)
}

// Snapshot returns a copy of gameID's subscribers in registration order.
// The dispatcher iterates the copy so sends never race registry mutation.
func (r *Registry) Snapshot(gameID string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.subs[gameID]
	if len(subs) == 0 {
		return nil
	}
	out := make([]Subscriber, len(subs))
	copy(out, subs)
	return out
}

// Stats reports the number of games with live subscribers and the total
// subscriber count.
func (r *Registry) Stats() (games, subscribers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games = len(r.subs)
	for _, subs := range r.subs {
		subscribers += len(subs)
	}
	return games, subscribers
}

// GameCounts returns the live subscriber count per game.
func (r *Registry) GameCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.subs))
	for gameID, subs := range r.subs {
		counts[gameID] = len(subs)
	}
	return counts
}
