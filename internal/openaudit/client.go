// Package openaudit is a typed client for the OpenAudit REST backend.
package openaudit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:8000"

const defaultRetryDelay = time.Second

// Recorder observes every upstream call. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveUpstream(method, route string, status int, duration time.Duration)
}

// Client talks to the OpenAudit backend. Calls are grouped by resource.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
	retryDelay time.Duration

	Topics       *TopicsService
	LGUs         *LGUsService
	Transactions *TransactionsService
	Analytics    *AnalyticsService
	LLM          *LLMService
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryDelay sets the pause before the single GET retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithRecorder attaches an upstream call recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient constructs a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("openaudit: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("openaudit: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Topics = &TopicsService{client: c}
	c.LGUs = &LGUsService{client: c}
	c.Transactions = &TransactionsService{client: c}
	c.Analytics = &AnalyticsService{client: c}
	c.LLM = &LLMService{client: c}
	return c, nil
}

// BaseURL reports the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping checks the backend health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", "/health", nil, nil)
}

type call struct {
	method string
	path   string
	route  string
	query  url.Values
	body   any
}

func (c *Client) get(ctx context.Context, path, route string, query url.Values, dest any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, route: route, query: query}, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, call{method: http.MethodPost, path: path, route: path, body: body}, dest)
}

// do issues the call and decodes the body into dest. A GET gets one retry on
// transport failures, 5xx and 429.
func (c *Client) do(ctx context.Context, cl call, dest any) error {
	var payload []byte
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("openaudit: encode %s body: %w", cl.path, err)
		}
		payload = raw
	}
	requestID := requestIDFrom(ctx)

	attempts := 1
	if cl.method == http.MethodGet {
		attempts = 2
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.roundTrip(ctx, cl, payload, requestID)
		if err == nil {
			return decodeInto(cl, body, dest)
		}
		lastErr = err
		if attempt == attempts || !retryable(ctx, err) {
			break
		}
		c.logger.Warn("openaudit retry",
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		if err := sleep(ctx, c.retryDelay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, cl call, payload []byte, requestID string) ([]byte, error) {
	target := c.resolve(cl.path, cl.query)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("openaudit: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(chimw.RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl, 0, start)
		return nil, &NetworkError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	c.observe(cl, resp.StatusCode, start)
	if err != nil {
		return nil, &NetworkError{Method: cl.method, Path: cl.path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(cl.method, cl.path, resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) observe(cl call, status int, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.ObserveUpstream(cl.method, cl.route, status, time.Since(start))
}

func decodeInto(cl call, body []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &DecodeError{Method: cl.method, Path: cl.path, Err: err}
	}
	return nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return !errors.Is(netErr.Err, context.Canceled) && !errors.Is(netErr.Err, context.DeadlineExceeded)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func requestIDFrom(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
