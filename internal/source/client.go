package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"catalog-sync/internal/config"

	"go.uber.org/zap"
)

const maxErrorBody = 4 << 10

// Fetcher reads the current batch of raw items from the content source
type Fetcher interface {
	FetchItems(ctx context.Context) ([]json.RawMessage, error)
}

// HTTPError is returned when the source answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("source responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("source responded with status %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether retrying the same request cannot succeed
// without a configuration change.
func (e *HTTPError) Permanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type entriesResponse struct {
	Items []json.RawMessage `json:"items"`
}

// Client reads product entries from a Contentful-style delivery API
type Client struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a source client. A zero cfg.Timeout leaves requests
// unbounded.
func NewClient(cfg config.SourceConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// EntriesURL builds the entries endpoint for the configured space and
// environment.
func (c *Client) EntriesURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid source base url: %w", err)
	}

	base = base.JoinPath("spaces", c.cfg.SpaceID, "environments", c.cfg.Environment, "entries")

	query := base.Query()
	query.Set("access_token", c.cfg.AccessToken)
	query.Set("content_type", c.cfg.ContentType)
	base.RawQuery = query.Encode()

	return base.String(), nil
}

// FetchItems performs one read of the entries endpoint
func (c *Client) FetchItems(ctx context.Context) ([]json.RawMessage, error) {
	endpoint, err := c.EntriesURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build source request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Fetching source entries",
		zap.String("space", c.cfg.SpaceID),
		zap.String("environment", c.cfg.Environment),
		zap.String("content_type", c.cfg.ContentType),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload entriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return payload.Items, nil
}

// DecodeError is returned when a 2xx body is not the expected envelope
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to decode source response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
