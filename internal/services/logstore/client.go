// Package logstore provides a client for the log store REST API.
package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/UnyieldingOrca/timberline-sub000/internal/common"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// DefaultPageSize is the default query pagination size.
	DefaultPageSize = 1000

	queryPath  = "/v2/vectordb/entities/query"
	healthPath = "/healthz"
)

// Client queries log records from the log store over its REST API.
type Client struct {
	baseURL    string
	collection string
	token      string
	pageSize   int
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithPageSize sets the query pagination size.
func WithPageSize(pageSize int) ClientOption {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

// NewClient creates a new log store client.
func NewClient(cfg *common.LogStoreConfig, opts ...ClientOption) *Client {
	timeout := DefaultTimeout
	if cfg.RequestTimeout != "" {
		if parsed, err := time.ParseDuration(cfg.RequestTimeout); err == nil && parsed > 0 {
			timeout = parsed
		}
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		collection: cfg.Collection,
		token:      cfg.Token,
		pageSize:   pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the log store API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("log store API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type queryRequest struct {
	CollectionName string   `json:"collectionName"`
	Filter         string   `json:"filter"`
	OutputFields   []string `json:"outputFields"`
	Limit          int      `json:"limit"`
	Offset         int      `json:"offset"`
}

type queryResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message,omitempty"`
	Data    []logStoreRow `json:"data"`
}

// logStoreRow is a single record as stored in the collection. Labels are
// held as a JSON field so the row decodes them directly into a map.
type logStoreRow struct {
	ID             int64             `json:"id"`
	Timestamp      int64             `json:"timestamp"`
	Message        string            `json:"message"`
	Source         string            `json:"source"`
	Labels         map[string]string `json:"labels"`
	Level          string            `json:"level"`
	DuplicateCount int               `json:"duplicate_count"`
}

func (r *logStoreRow) toRecord() *models.LogRecord {
	dup := r.DuplicateCount
	if dup < 1 {
		dup = 1
	}
	return &models.LogRecord{
		ID:             r.ID,
		Timestamp:      r.Timestamp,
		Message:        r.Message,
		Source:         r.Source,
		Labels:         r.Labels,
		Level:          models.LogLevel(r.Level),
		DuplicateCount: dup,
	}
}

// post performs a POST request to the API.
func (c *Client) post(ctx context.Context, path string, payload, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Log store API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// QueryTimeRange retrieves all log records within [start, end), paging
// through the collection until a short page signals the end.
func (c *Client) QueryTimeRange(ctx context.Context, start, end time.Time) ([]*models.LogRecord, error) {
	filter := fmt.Sprintf("timestamp >= %d and timestamp < %d", start.UnixMilli(), end.UnixMilli())

	var records []*models.LogRecord
	offset := 0
	for {
		req := queryRequest{
			CollectionName: c.collection,
			Filter:         filter,
			OutputFields:   []string{"id", "timestamp", "message", "source", "labels", "level", "duplicate_count"},
			Limit:          c.pageSize,
			Offset:         offset,
		}

		var resp queryResponse
		if err := c.post(ctx, queryPath, &req, &resp); err != nil {
			return nil, fmt.Errorf("failed to query log store: %w", err)
		}
		if resp.Code != 0 {
			return nil, fmt.Errorf("log store query rejected: %s (code %d)", resp.Message, resp.Code)
		}

		for i := range resp.Data {
			records = append(records, resp.Data[i].toRecord())
		}

		if len(resp.Data) < c.pageSize {
			break
		}
		offset += len(resp.Data)
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("count", len(records)).
			Str("collection", c.collection).
			Msg("Log store query complete")
	}

	return records, nil
}

// HealthCheck reports whether the log store is reachable.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return false
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Msg("Log store health check failed")
		}
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close releases client resources. The underlying HTTP client keeps no
// state that needs explicit shutdown.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
