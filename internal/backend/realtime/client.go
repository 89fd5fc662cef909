package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

// Defaults.
const (
	HeartbeatInterval = 25 * time.Second
	JoinTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
)

// ErrJoinRejected is returned when the server refuses the channel join.
var ErrJoinRejected = errors.New("realtime: join rejected")

// Config describes one change subscription.
type Config struct {
	// URL is the websocket endpoint, e.g. wss://x.supabase.co/realtime/v1/websocket.
	URL    string
	APIKey string

	// AccessToken authorizes row-level security on the channel.
	AccessToken string

	Schema string // defaults to "public"
	Table  string
	Filter backend.Filter

	HeartbeatInterval time.Duration
	Dialer            *websocket.Dialer
	Logger            logger.Logger
}

// Subscription is an open change feed. It implements backend.Subscription.
type Subscription struct {
	conn     *websocket.Conn
	topic    string
	onChange func(backend.Change)
	log      logger.Logger

	writeMu sync.Mutex
	ref     atomic.Uint64

	joined chan error
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	stopCtx func() bool
}

// Subscribe dials cfg.URL, joins the change channel for cfg.Table and
// returns once the server acknowledged the join.
//
// Dial failures are reported as backend.ErrUnreachable.
func Subscribe(ctx context.Context, cfg Config, onChange func(backend.Change)) (*Subscription, error) {
	if cfg.URL == "" || cfg.Table == "" {
		return nil, fmt.Errorf("realtime: url and table are required")
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = HeartbeatInterval
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	endpoint, err := buildURL(cfg.URL, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	conn, resp, err := cfg.Dialer.DialContext(ctx, endpoint, http.Header{})
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &backend.Error{Status: resp.StatusCode, Message: "realtime handshake rejected"}
		}
		return nil, backend.Unreachable(err)
	}

	s := &Subscription{
		conn:     conn,
		topic:    "realtime:" + cfg.Schema + ":" + cfg.Table,
		onChange: onChange,
		log:      cfg.Logger.With("component", "realtime", "table", cfg.Table),
		joined:   make(chan error, 1),
		done:     make(chan struct{}),
	}

	var join joinPayload
	join.Config.PostgresChanges = []changeFilter{{
		Event:  "*",
		Schema: cfg.Schema,
		Table:  cfg.Table,
		Filter: cfg.Filter.String(),
	}}
	join.AccessToken = cfg.AccessToken

	s.wg.Add(1)
	go s.readLoop()

	if err := s.send(s.topic, eventJoin, join); err != nil {
		s.Close()
		return nil, backend.Unreachable(err)
	}

	timer := time.NewTimer(JoinTimeout)
	defer timer.Stop()

	select {
	case err := <-s.joined:
		if err != nil {
			s.Close()
			return nil, err
		}
	case <-timer.C:
		s.Close()
		return nil, backend.Unreachable(errors.New("realtime: join timed out"))
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}

	s.wg.Add(1)
	go s.heartbeatLoop(cfg.HeartbeatInterval)

	s.mu.Lock()
	s.stopCtx = context.AfterFunc(ctx, func() { s.Close() })
	s.mu.Unlock()

	s.log.Debug("subscribed", "filter", cfg.Filter.String())
	return s, nil
}

// Done is closed when the subscription ends, by Close or by the server.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close leaves the channel and closes the connection.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		stop := s.stopCtx
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		_ = s.send(s.topic, eventLeave, struct{}{})

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()

		close(s.done)
		s.closeErr = s.conn.Close()
		s.wg.Wait()
	})
	return s.closeErr
}

func (s *Subscription) send(topic, event string, payload any) error {
	env, err := newEnvelope(topic, event, payload, s.ref.Add(1))
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(env)
}

func (s *Subscription) heartbeatLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.send(phoenixTopic, eventHeartbeat, struct{}{}); err != nil {
				s.log.Warn("heartbeat failed", "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) readLoop() {
	defer s.wg.Done()

	joined := false
	for {
		var env envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if !joined {
				s.joined <- backend.Unreachable(err)
			}
			select {
			case <-s.done:
			default:
				s.log.Warn("connection lost", "error", err)
				go s.Close()
			}
			return
		}

		if env.Topic != s.topic {
			continue
		}

		switch env.Event {
		case eventReply:
			if joined {
				continue
			}
			var reply replyPayload
			if err := json.Unmarshal(env.Payload, &reply); err != nil || reply.Status != "ok" {
				s.joined <- fmt.Errorf("%w: %s", ErrJoinRejected, string(reply.Response))
				return
			}
			joined = true
			s.joined <- nil

		case eventChanges:
			var p changesPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				s.log.Warn("malformed change", "error", err)
				continue
			}
			s.onChange(backend.Change{
				Table: p.Data.Table,
				Event: p.Data.Type,
				New:   backend.Record(p.Data.Record),
				Old:   backend.Record(p.Data.OldRecord),
			})

		case eventError, eventClose:
			s.log.Warn("channel closed by server", "event", env.Event)
			if !joined {
				s.joined <- fmt.Errorf("%w: %s", ErrJoinRejected, env.Event)
				return
			}
			go s.Close()
			return
		}
	}
}

func buildURL(raw, apiKey string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("realtime: parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	if apiKey != "" {
		q.Set("apikey", apiKey)
	}
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
