// Package remote implements the sync transport over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/errbook/internal/syncer"
)

// maxErrorBody bounds how much of a rejection body is kept for logging.
const maxErrorBody = 1024

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote rejected batch: status %d", e.Code)
	}
	return fmt.Sprintf("remote rejected batch: status %d: %s", e.Code, e.Body)
}

// Client posts sync batches to a single endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	logger   *slog.Logger
}

var _ syncer.Transport = (*Client)(nil)

// NewClient creates a Client. timeout bounds each push.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	return &Client{
		http:     client,
		endpoint: endpoint,
		logger:   logger.With(slog.String("component", "remote_client")),
	}
}

// Push implements syncer.Transport. Any 2xx status is success; the response
// body is ignored.
func (c *Client) Push(ctx context.Context, batch syncer.Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push batch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("pushed batch",
		slog.String("entity_type", string(batch.Type)),
		slog.Int("items", len(batch.Items)),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))
	return nil
}
