package trainer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"spam-trainer/internal/domain"
)

const (
	processPath = "/process"
	predictPath = "/predict"

	// maxResponseBytes bounds a decoded response; training results embed base64 plots.
	maxResponseBytes = 64 << 20
)

// Doer sends one HTTP request; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the remote training and prediction service.
type Client struct {
	baseURL   string
	modelType string
	http      Doer
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithClock replaces the timestamp source of submissions.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for the service at baseURL.
func NewClient(settings domain.Settings, opts ...Option) *Client {
	modelType := strings.TrimSpace(settings.ModelType)
	if modelType == "" {
		modelType = domain.DefaultModelType
	}

	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(settings.ServiceURL), "/"),
		modelType: modelType,
		http:      &http.Client{Timeout: settings.RequestTimeout()},
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ModelType returns the tag sent with submissions.
func (c *Client) ModelType() string {
	return c.modelType
}

// Ping issues a GET against the service root; any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reach training service: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.Body.Close()
}

// roundTrip executes req and returns status and body.
func (c *Client) roundTrip(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
