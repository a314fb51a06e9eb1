package sampledata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pitchiq/internal/domain/model"
	"github.com/okian/pitchiq/internal/domain/types"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Upload submits cohort with PUT /cohort. key, when set, is sent as the
// idempotency key.
func (c *HTTPClient) Upload(ctx context.Context, cohort model.Cohort, key string) (types.RunSummary, error) {
	body, err := json.Marshal(cohort)
	if err != nil {
		return types.RunSummary{}, fmt.Errorf("failed to marshal cohort: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/cohort", bytes.NewReader(body))
	if err != nil {
		return types.RunSummary{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	var summary types.RunSummary
	if err := c.do(req, &summary, http.StatusCreated, http.StatusOK); err != nil {
		return types.RunSummary{}, err
	}
	return summary, nil
}

// TopScores fetches the n best scores.
func (c *HTTPClient) TopScores(ctx context.Context, n int) ([]types.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scores?limit="+strconv.Itoa(n), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var entries []types.Entry
	if err := c.do(req, &entries, http.StatusOK); err != nil {
		return nil, err
	}
	return entries, nil
}

// Health checks GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, nil, http.StatusOK)
}

func (c *HTTPClient) do(req *http.Request, out any, want ...int) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	ok := false
	for _, code := range want {
		ok = ok || resp.StatusCode == code
	}
	if !ok {
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
