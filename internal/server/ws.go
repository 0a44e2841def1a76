package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

// controlMessage covers the non-event frames the server sends: the
// connection acknowledgment and idle keepalives.
type controlMessage struct {
	Type      string `json:"type"`
	GameID    string `json:"game_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// wsConn adapts a WebSocket connection to the Subscriber interface. The
// mutex serializes writes: broadcasts, pongs, and keepalives may originate
// from different goroutines and the connection allows one writer at a time.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() {
	c.conn.CloseNow()
}

// handleSubscribe upgrades GET /ws/games/{gameID} and registers the client
// for that game's broadcasts. The handshake is rejected with a policy
// violation close (1008) for a disallowed origin or an unknown game, before
// any registry state exists. Deregistration is deferred and idempotent, so
// the read loop, the keepalive loop, and the dispatcher can each trigger
// teardown without stepping on one another.
func handleSubscribe(logger *slog.Logger, store Store, registry *Registry, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // origin policy is enforced below
		})
		if err != nil {
			logger.Error("websocket accept failed", "game_id", gameID, "error", err)
			return
		}
		defer conn.CloseNow()

		if !originAllowed(r.Header.Get("Origin"), opts.AllowedOrigins) {
			conn.Close(websocket.StatusPolicyViolation, "origin not allowed")
			return
		}

		exists, err := store.GameExists(r.Context(), gameID)
		if err != nil {
			logger.Error("checking game for subscription", "game_id", gameID, "error", err)
			conn.Close(websocket.StatusInternalError, "store error")
			return
		}
		if !exists {
			conn.Close(websocket.StatusPolicyViolation, "game not found")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sub := &wsConn{conn: conn}
		registry.Register(gameID, sub)
		defer registry.Deregister(gameID, sub)

		logger.Info("subscriber connected", "game_id", gameID)
		defer logger.Info("subscriber disconnected", "game_id", gameID)

		if err := sendControl(ctx, sub, controlMessage{
			Type:   "connection_established",
			GameID: gameID,
		}, opts.WriteTimeout); err != nil {
			return
		}

		var lastActivity atomic.Int64
		lastActivity.Store(time.Now().UnixNano())

		go keepaliveLoop(ctx, cancel, sub, &lastActivity, opts)

		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				return
			}
			lastActivity.Store(time.Now().UnixNano())

			// Client "ping" gets an immediate "pong"; anything else is
			// accepted and ignored.
			if typ == websocket.MessageText && string(msg) == "ping" {
				sendCtx, sendCancel := context.WithTimeout(ctx, opts.WriteTimeout)
				err := sub.Send(sendCtx, []byte("pong"))
				sendCancel()
				if err != nil {
					return
				}
			}
		}
	}
}

// keepaliveLoop sends a keepalive frame whenever the connection has been
// idle for a full interval. A failed keepalive cancels the connection
// context, which unblocks the read loop and runs teardown.
func keepaliveLoop(ctx context.Context, cancel context.CancelFunc, sub *wsConn, lastActivity *atomic.Int64, opts Options) {
	ticker := time.NewTicker(opts.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(time.Unix(0, lastActivity.Load()))
			if idle < opts.KeepaliveInterval {
				continue
			}
			err := sendControl(ctx, sub, controlMessage{
				Type:      "keepalive",
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			}, opts.WriteTimeout)
			if err != nil {
				cancel()
				return
			}
		}
	}
}

func sendControl(ctx context.Context, sub *wsConn, msg controlMessage, timeout time.Duration) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sub.Send(sendCtx, data)
}

// originAllowed reports whether origin passes the allow-list. An empty list
// allows everything; an absent Origin header (non-browser client) always
// passes. Trailing slashes are ignored on both sides.
func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 || origin == "" {
		return true
	}
	o := strings.TrimRight(origin, "/")
	for _, a := range allowed {
		if strings.TrimRight(a, "/") == o {
			return true
		}
	}
	return false
}
