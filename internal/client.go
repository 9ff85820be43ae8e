package jobtop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 64 << 20

// Fetcher retrieves the metrics of the configured job for a period.
type Fetcher interface {
	Fetch(ctx context.Context, period string) (*MetricsResponse, error)
}

// Client talks to the jobmetrics REST API for one job.
type Client struct {
	base    *url.URL
	cluster string
	job     string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		base:    cfg.APIBase,
		cluster: cfg.Cluster,
		job:     cfg.Job,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Fetch issues one GET for period. Transport failures and non-2xx
// responses return *NetworkError; an undecodable body or one without
// "data" returns *PayloadParseError.
func (c *Client) Fetch(ctx context.Context, period string) (*MetricsResponse, error) {
	u := MetricsURL(c.base, c.cluster, c.job, period)
	reqID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &NetworkError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	log.Printf("GET %s -> %d (%d bytes, %s, request %s)", u, resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond), reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	var out MetricsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &PayloadParseError{Status: resp.StatusCode, Err: err}
	}
	if !out.HasData() {
		return nil, &PayloadParseError{Status: resp.StatusCode, Err: ErrMissingData}
	}
	return &out, nil
}
