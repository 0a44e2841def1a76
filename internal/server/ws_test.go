package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func wsURL(srv *httptest.Server, gameID string) string {
	return "ws" + srv.URL[len("http"):] + "/ws/games/" + gameID
}

// dialGame connects to a game's channel and consumes the
// connection_established acknowledgment.
func dialGame(ctx context.Context, t *testing.T, srv *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, gameID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	_, ack, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading ack: %v", err)
	}
	var ctrl controlMessage
	if err := json.Unmarshal(ack, &ctrl); err != nil {
		t.Fatalf("unmarshaling ack %q: %v", ack, err)
	}
	if ctrl.Type != "connection_established" || ctrl.GameID != gameID {
		t.Fatalf("ack = %+v, want connection_established for %s", ctrl, gameID)
	}
	return conn
}

func readEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) EventMessage {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshaling event %q: %v", data, err)
	}
	return msg
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")
	other := createGame(t, r, sport.ID, "C", "D")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := dialGame(ctx, t, srv, game.ID)
	second := dialGame(ctx, t, srv, game.ID)
	bystander := dialGame(ctx, t, srv, other.ID)

	w := doJSON(t, r, http.MethodPost, "/games/"+game.ID+"/events", CreateEventRequest{
		Team: "A", Minute: 15, Description: "Goal scored!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("creating event: got %d: %s", w.Code, w.Body.String())
	}

	for name, conn := range map[string]*websocket.Conn{"first": first, "second": second} {
		msg := readEvent(ctx, t, conn)
		if msg.GameID != game.ID || msg.Team != "A" || msg.Minute != 15 || msg.Description != "Goal scored!" {
			t.Errorf("%s received %+v", name, msg)
		}
		if msg.EventID == "" || msg.Timestamp == "" {
			t.Errorf("%s received event without id/timestamp: %+v", name, msg)
		}
	}

	// The other game's subscriber saw nothing: a short read only times out.
	shortCtx, shortCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer shortCancel()
	if _, data, err := bystander.Read(shortCtx); err == nil {
		t.Errorf("subscriber of another game received %q", data)
	}
}

func TestSubscribeThreeEventsInOrder(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(ctx, t, srv, game.ID)

	descriptions := []string{"Kickoff", "Shot on goal", "Goal scored!"}
	for i, desc := range descriptions {
		w := doJSON(t, r, http.MethodPost, "/games/"+game.ID+"/events", CreateEventRequest{
			Team: "B", Minute: i, Description: desc,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("creating event %d: got %d", i, w.Code)
		}
	}

	for i, desc := range descriptions {
		msg := readEvent(ctx, t, conn)
		if msg.Description != desc {
			t.Errorf("message %d = %q, want %q", i, msg.Description, desc)
		}
	}
}

func TestSubscribeLateJoinerGetsNoHistory(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/games/"+game.ID+"/events", CreateEventRequest{
			Team: "A", Minute: i, Description: "early event",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("creating event %d: got %d", i, w.Code)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(ctx, t, srv, game.ID)

	w := doJSON(t, r, http.MethodPost, "/games/"+game.ID+"/events", CreateEventRequest{
		Team: "B", Minute: 90, Description: "late event",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("creating late event: got %d", w.Code)
	}

	// The first frame after the ack is the post-registration event, not any
	// of the three that predate the subscription.
	msg := readEvent(ctx, t, conn)
	if msg.Description != "late event" {
		t.Errorf("first received event = %q, want the post-registration one", msg.Description)
	}
}

func TestSubscribePingPong(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(ctx, t, srv, game.ID)

	if err := conn.Write(ctx, websocket.MessageText, []byte("ping")); err != nil {
		t.Fatalf("writing ping: %v", err)
	}
	_, reply, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	if string(reply) != "pong" {
		t.Errorf("reply = %q, want pong", reply)
	}
}

func TestSubscribeIdleKeepalive(t *testing.T) {
	r := newTestRouterOpts(t, Options{
		KeepaliveInterval: 100 * time.Millisecond,
		WriteTimeout:      time.Second,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(ctx, t, srv, game.ID)

	// Send nothing: the idle threshold passes and the server speaks first.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading keepalive: %v", err)
	}
	var ctrl controlMessage
	if err := json.Unmarshal(data, &ctrl); err != nil {
		t.Fatalf("unmarshaling %q: %v", data, err)
	}
	if ctrl.Type != "keepalive" {
		t.Fatalf("frame type = %q, want keepalive", ctrl.Type)
	}
	if ctrl.Timestamp == "" {
		t.Error("keepalive missing timestamp")
	}

	// Staying idle produces another one; the connection is still live.
	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading second keepalive: %v", err)
	}
	if !strings.Contains(string(data), "keepalive") {
		t.Errorf("second frame = %q, want another keepalive", data)
	}
}

func TestSubscribeUnknownGame(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "unknown"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("read succeeded, want policy-violation close")
	}
	if got := websocket.CloseStatus(err); got != websocket.StatusPolicyViolation {
		t.Errorf("close status = %v, want %v", got, websocket.StatusPolicyViolation)
	}
}

func TestSubscribeOriginAllowList(t *testing.T) {
	r := newTestRouterOpts(t, Options{
		AllowedOrigins:    []string{"https://scoreboard.example/"},
		KeepaliveInterval: 25 * time.Second,
		WriteTimeout:      time.Second,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("disallowed origin", func(t *testing.T) {
		conn, _, err := websocket.Dial(ctx, wsURL(srv, game.ID), &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{"https://evil.example"}},
		})
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.CloseNow()

		_, _, err = conn.Read(ctx)
		if got := websocket.CloseStatus(err); got != websocket.StatusPolicyViolation {
			t.Errorf("close status = %v, want %v", got, websocket.StatusPolicyViolation)
		}
	})

	t.Run("allowed origin ignoring trailing slash", func(t *testing.T) {
		conn, _, err := websocket.Dial(ctx, wsURL(srv, game.ID), &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{"https://scoreboard.example"}},
		})
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.CloseNow()

		_, ack, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("reading ack: %v", err)
		}
		if !strings.Contains(string(ack), "connection_established") {
			t.Errorf("ack = %q", ack)
		}
	})
}

func TestSubscribeDisconnectCleansRegistry(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	sport := createSport(t, r, "Soccer", "soccer")
	game := createGame(t, r, sport.ID, "A", "B")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(ctx, t, srv, game.ID)
	conn.Close(websocket.StatusNormalClosure, "done")

	// The lifecycle handler deregisters on its way out; poll /stats until
	// the count drops.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w := doJSON(t, r, http.MethodGet, "/stats", nil)
		var stats StatsResponse
		json.NewDecoder(w.Body).Decode(&stats)
		if stats.Subscribers == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber still registered after close: %+v", stats)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
