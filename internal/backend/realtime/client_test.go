package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeServer speaks just enough of the Phoenix protocol for one channel.
type fakeServer struct {
	t          *testing.T
	rejectJoin bool

	mu       sync.Mutex
	joins    []joinPayload
	query    string
	events   []string
	conn     *websocket.Conn
	joinedCh chan struct{}
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{t: t, joinedCh: make(chan struct{})}
	srv := httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	fs.mu.Lock()
	fs.query = r.URL.RawQuery
	fs.conn = ws
	fs.mu.Unlock()

	for {
		var env envelope
		if err := ws.ReadJSON(&env); err != nil {
			return
		}

		fs.mu.Lock()
		fs.events = append(fs.events, env.Event)
		fs.mu.Unlock()

		if env.Event != eventJoin {
			continue
		}

		var join joinPayload
		json.Unmarshal(env.Payload, &join)
		fs.mu.Lock()
		fs.joins = append(fs.joins, join)
		fs.mu.Unlock()

		status := "ok"
		if fs.rejectJoin {
			status = "error"
		}
		reply, _ := json.Marshal(replyPayload{Status: status, Response: json.RawMessage(`{}`)})
		ws.WriteJSON(envelope{Topic: env.Topic, Event: eventReply, Payload: reply, Ref: env.Ref})
		if !fs.rejectJoin {
			close(fs.joinedCh)
		}
	}
}

func (fs *fakeServer) push(topic string, data map[string]any) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	payload, _ := json.Marshal(map[string]any{"data": data})
	if err := fs.conn.WriteJSON(envelope{Topic: topic, Event: eventChanges, Payload: payload}); err != nil {
		fs.t.Errorf("push: %v", err)
	}
}

func (fs *fakeServer) sawEvent(event string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, e := range fs.events {
		if e == event {
			return true
		}
	}
	return false
}

func wsURL(srv *httptest.Server) string {
	return strings.Replace(srv.URL, "http://", "ws://", 1) + "/realtime/v1/websocket"
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	fs, srv := newFakeServer(t)

	changes := make(chan backend.Change, 4)
	sub, err := Subscribe(context.Background(), Config{
		URL:         wsURL(srv),
		APIKey:      "anon",
		AccessToken: "eyJ.token",
		Table:       "user_data",
		Filter:      backend.Eq("user_id", "u1"),
		Logger:      logger.Nop(),
	}, func(c backend.Change) { changes <- c })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	<-fs.joinedCh
	fs.mu.Lock()
	join := fs.joins[0]
	query := fs.query
	fs.mu.Unlock()

	pc := join.Config.PostgresChanges[0]
	if pc.Table != "user_data" || pc.Schema != "public" || pc.Filter != "user_id=eq.u1" {
		t.Errorf("join config = %+v", pc)
	}
	if join.AccessToken != "eyJ.token" {
		t.Errorf("join access token = %q", join.AccessToken)
	}
	if !strings.Contains(query, "apikey=anon") || !strings.Contains(query, "vsn=1.0.0") {
		t.Errorf("query = %q", query)
	}

	fs.push("realtime:public:user_data", map[string]any{
		"table":      "user_data",
		"type":       "UPDATE",
		"record":     map[string]any{"user_id": "u1", "data": "new"},
		"old_record": map[string]any{"user_id": "u1"},
	})
	fs.push("realtime:other", map[string]any{"table": "other", "type": "INSERT"})

	select {
	case c := <-changes:
		if c.Event != backend.EventUpdate || c.Table != "user_data" || c.New.String("data") != "new" {
			t.Errorf("change = %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}

	select {
	case c := <-changes:
		t.Errorf("change for another topic delivered: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_Heartbeat(t *testing.T) {
	fs, srv := newFakeServer(t)

	sub, err := Subscribe(context.Background(), Config{
		URL:               wsURL(srv),
		Table:             "routines",
		HeartbeatInterval: 10 * time.Millisecond,
		Logger:            logger.Nop(),
	}, func(backend.Change) {})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !fs.sawEvent(eventHeartbeat) {
		if time.Now().After(deadline) {
			t.Fatal("no heartbeat sent")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubscribe_JoinRejected(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.rejectJoin = true

	_, err := Subscribe(context.Background(), Config{URL: wsURL(srv), Table: "user_data", Logger: logger.Nop()}, func(backend.Change) {})
	if !errors.Is(err, ErrJoinRejected) {
		t.Errorf("Subscribe() error = %v, want ErrJoinRejected", err)
	}
}

func TestSubscribe_Unreachable(t *testing.T) {
	_, err := Subscribe(context.Background(), Config{URL: "ws://127.0.0.1:1/realtime", Table: "user_data", Logger: logger.Nop()}, func(backend.Change) {})
	if !backend.IsUnreachable(err) {
		t.Errorf("Subscribe() error = %v, want unreachable", err)
	}
}

func TestSubscribe_CloseAndContext(t *testing.T) {
	fs, srv := newFakeServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := Subscribe(ctx, Config{URL: wsURL(srv), Table: "user_data", Logger: logger.Nop()}, func(backend.Change) {})
	if err != nil {
		t.Fatal(err)
	}

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !fs.sawEvent(eventLeave) {
		if time.Now().After(deadline) {
			t.Fatal("no phx_leave sent on close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://x.example.co/realtime/v1/websocket", "wss://x.example.co/realtime/v1/websocket?apikey=k&vsn=1.0.0"},
		{"http://localhost:54321/realtime/v1/websocket", "ws://localhost:54321/realtime/v1/websocket?apikey=k&vsn=1.0.0"},
		{"wss://x/ws", "wss://x/ws?apikey=k&vsn=1.0.0"},
	}
	for _, tt := range tests {
		got, err := buildURL(tt.in, "k")
		if err != nil || got != tt.want {
			t.Errorf("buildURL(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
