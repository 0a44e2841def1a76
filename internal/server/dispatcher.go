package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// EventMessage is the payload pushed to subscribers of a game.
type EventMessage struct {
	EventID     string `json:"event_id"`
	GameID      string `json:"game_id"`
	Team        string `json:"team"`
	Minute      int    `json:"minute"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// Dispatcher delivers event payloads to a game's current subscribers.
type Dispatcher struct {
	registry     *Registry
	logger       *slog.Logger
	writeTimeout time.Duration
	dropped      atomic.Int64
}

func NewDispatcher(registry *Registry, logger *slog.Logger, writeTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		logger:       logger,
		writeTimeout: writeTimeout,
	}
}

// Broadcast sends msg to every subscriber of gameID, in registration order.
// A failed send never stops delivery to the rest; subscribers whose send
// fails are deregistered and closed before Broadcast returns. Each send is
// bounded by the write timeout so one stalled client cannot hold up the
// batch forever.
func (d *Dispatcher) Broadcast(ctx context.Context, gameID string, msg EventMessage) {
	// The event is durable by the time delivery starts, and the publisher
	// disconnecting must not tear down healthy subscribers. Detach from the
	// caller's cancellation; the per-send timeout still bounds each write.
	ctx = context.WithoutCancel(ctx)

	subs := d.registry.Snapshot(gameID)
	if len(subs) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		d.logger.Error("marshaling broadcast payload", "game_id", gameID, "error", err)
		return
	}

	var failed []Subscriber
	for _, sub := range subs {
		sendCtx, cancel := context.WithTimeout(ctx, d.writeTimeout)
		err := sub.Send(sendCtx, data)
		cancel()
		if err != nil {
			failed = append(failed, sub)
		}
	}

	for _, sub := range failed {
		d.registry.Deregister(gameID, sub)
		sub.Close()
		d.dropped.Add(1)
	}
	if len(failed) > 0 {
		d.logger.Info("dropped subscribers after failed delivery",
			"game_id", gameID, "failed", len(failed), "delivered", len(subs)-len(failed))
	}
}

// Dropped returns the number of subscribers removed after a failed delivery.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}
