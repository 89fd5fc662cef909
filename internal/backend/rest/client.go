package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
	"github.com/yndnr/supertracker-go/internal/telemetry/metric"
)

// DefaultTimeout bounds every HTTP request.
const DefaultTimeout = 30 * time.Second

const userAgent = "supertracker-go/1.0"

// SessionStore persists the signed-in session between runs.
type SessionStore interface {
	SaveSession(ctx context.Context, session *domain.AuthSession) error
	// LoadSession returns nil, nil when no session is stored.
	LoadSession(ctx context.Context) (*domain.AuthSession, error)
	ClearSession(ctx context.Context) error
}

// Config holds connection settings.
type Config struct {
	// URL is the project base URL, e.g. https://x.supabase.co.
	URL    string
	APIKey string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// RealtimeURL overrides the websocket endpoint derived from URL.
	RealtimeURL string
}

// Client is an HTTP backend.Backend.
type Client struct {
	baseURL     string
	apiKey      string
	realtimeURL string
	http        *http.Client

	store   SessionStore
	log     logger.Logger
	metrics *metric.Registry

	mu      sync.RWMutex
	session *domain.AuthSession
}

// Option configures the Client.
type Option func(*Client)

// WithSessionStore persists sessions through store.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithHTTPClient replaces the HTTP client, e.g. to trust a private CA.
// The client's Timeout is overridden by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics records request counts and latencies in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = reg
	}
}

// New creates a client. It does not contact the backend.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, domain.ErrNotConfigured.WithDetails("backend.url is empty")
	}
	if cfg.APIKey == "" {
		return nil, domain.ErrNotConfigured.WithDetails("backend.api_key is empty")
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	c := &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		realtimeURL: cfg.RealtimeURL,
		http:        &http.Client{},
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.http.Timeout = timeout

	if c.realtimeURL == "" {
		c.realtimeURL = baseURL + "/realtime/v1/websocket"
	}
	c.log = c.log.With("component", "rest")

	return c, nil
}

// BaseURL returns the normalized project URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks the auth health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/auth/v1/health", nil, nil, nil)
}

// do sends one request and decodes a JSON reply into out (if non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any, headers ...string) (err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordBackendRequest(op, outcome(err), time.Since(start).Seconds())
		}
	}()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return ctxErr
		}
		return backend.Unreachable(err)
	}
	defer resp.Body.Close()

	return parseResponse(resp, out)
}

// addHeaders adds authentication and common headers.
func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	bearer := c.apiKey
	if s := c.currentSession(); s != nil && s.AccessToken != "" {
		bearer = s.AccessToken
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// parseResponse decodes a JSON reply into out or turns an error reply
// into *backend.Error.
func parseResponse(resp *http.Response, out any) error {
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return backend.Unreachable(fmt.Errorf("status %d", resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// errorBody covers both GoTrue and PostgREST error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func decodeError(status int, data []byte) *backend.Error {
	be := &backend.Error{Status: status}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		be.Message = strings.TrimSpace(string(data))
		if be.Message == "" {
			be.Message = http.StatusText(status)
		}
		return be
	}

	var code string
	if len(body.Code) > 0 && json.Unmarshal(body.Code, &code) == nil {
		be.Code = code
	}
	if body.ErrorCode != "" {
		be.Code = body.ErrorCode
	}
	if be.Code == "" && body.Error != "" {
		be.Code = body.Error
	}

	for _, m := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
		if m != "" {
			be.Message = m
			break
		}
	}
	if be.Message == "" {
		be.Message = http.StatusText(status)
	}

	// Older GoTrue releases only report these through the message text.
	lower := strings.ToLower(be.Message)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		be.Code = backend.CodeInvalidCredentials
	case strings.Contains(lower, "already registered"):
		be.Code = backend.CodeUserAlreadyExists
	}
	return be
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case backend.IsUnreachable(err):
		return "unreachable"
	default:
		return "rejected"
	}
}
