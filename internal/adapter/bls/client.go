package bls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/observability"
)

// DefaultBaseURL is the BLS Public Data API v2 time-series endpoint.
const DefaultBaseURL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"

// Client fetches one year of a fixed BLS series per call.
// It implements lookup.Fetcher.
type Client struct {
	seriesID   string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a BLS client for seriesID posting to baseURL.
func NewClient(baseURL, seriesID string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		seriesID: seriesID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchYear posts a single-year series request and returns the raw response.
// A non-2xx status is not an error here; only failures to get a response are.
func (c *Client) FetchYear(ctx context.Context, year int) (domain.RawResponse, error) {
	payload, err := json.Marshal(domain.NewSeriesRequest(c.seriesID, year))
	if err != nil {
		return domain.RawResponse{}, fmt.Errorf("encode series request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return domain.RawResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("transport").Inc()
		return domain.RawResponse{}, fmt.Errorf("series request for %d: %w", year, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("transport").Inc()
		return domain.RawResponse{}, fmt.Errorf("read response body: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	} else {
		c.metrics.UpstreamRequests.WithLabelValues("status").Inc()
		c.logger.Warn("bls request failed", "year", year, "status", resp.StatusCode)
	}

	return domain.RawResponse{
		StatusOK:   ok,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
