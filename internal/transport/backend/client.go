// Package backend talks to the external semantic search service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/domain"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	"github.com/kailas-cloud/modelsearch/internal/metrics"
)

// maxErrorBody bounds how much of a failed response body is logged.
const maxErrorBody = 512

// Config holds the backend client settings.
type Config struct {
	URL        string
	Timeout    time.Duration // 0 = no client-side timeout
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client posts search queries to the backend.
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a backend client. An empty URL is a configuration error.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, domain.ErrBackendNotConfigured
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{url: cfg.URL, http: hc, logger: logger}, nil
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []wireItem `json:"results"`
}

type wireItem struct {
	ID          string   `json:"id"`
	ModelID     string   `json:"model_id"`
	Tags        []string `json:"tags"`
	Downloads   *int64   `json:"downloads"`
	Distance    float64  `json:"distance"`
	Description *string  `json:"description"`
}

// Search returns the backend's ordered candidates for query. A missing
// results field yields an empty slice.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]item.Item, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		metrics.BackendErrorsTotal.WithLabelValues("transport").Inc()
		c.logger.Warn("Search backend unreachable",
			zap.String("request_id", requestID), zap.Duration("latency", duration), zap.Error(err))
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		metrics.BackendErrorsTotal.WithLabelValues("status").Inc()
		c.logger.Warn("Search backend returned error status",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, domain.NewStatusError(resp.StatusCode, statusText(resp))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
		metrics.BackendErrorsTotal.WithLabelValues("decode").Inc()
		c.logger.Warn("Search backend returned undecodable body",
			zap.String("request_id", requestID),
			zap.String("content_type", resp.Header.Get("Content-Type")),
			zap.Error(err),
		)
		return nil, domain.ErrBackendResponse
	}

	items := make([]item.Item, 0, len(parsed.Results))
	for _, w := range parsed.Results {
		items = append(items, w.toItem())
	}

	metrics.BackendRequestsTotal.WithLabelValues("success").Inc()
	metrics.BackendRequestDuration.Observe(duration.Seconds())
	metrics.BackendResultsReturned.Observe(float64(len(items)))
	c.logger.Debug("Search backend responded",
		zap.String("request_id", requestID),
		zap.Int("top_k", topK),
		zap.Int("results", len(items)),
		zap.Duration("latency", duration),
	)

	return items, nil
}

func (w wireItem) toItem() item.Item {
	id := w.ID
	if id == "" {
		id = w.ModelID
	}
	downloads := w.Downloads
	if downloads != nil && *downloads < 0 {
		downloads = nil
	}
	var description string
	if w.Description != nil {
		description = *w.Description
	}
	return item.New(id, w.Tags, downloads, w.Distance, description)
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}

// transportError keeps the network failure message, or falls back to a
// generic one when the failure carries none.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("search request: %w", err)
	}
	msg := err.Error()
	if msg == "" {
		msg = domain.UnknownErrorMessage
	}
	return fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, msg)
}
