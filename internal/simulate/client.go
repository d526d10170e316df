package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrThrottled is returned when the service keeps answering 429.
var ErrThrottled = errors.New("service throttled the request")

// client wraps http.Client with the service base URL.
type client struct {
	http    *http.Client
	baseURL string
	retries int
}

func newClient(baseURL string, timeout time.Duration, retries int) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		retries: retries,
	}
}

// post sends body as JSON and returns the final status code. Answers of 429
// are retried with a linear backoff; throttled counts those retries.
func (c *client) post(ctx context.Context, path string, body any, out any) (status, throttled int, err error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	for attempt := 1; ; attempt++ {
		status, err = c.do(ctx, http.MethodPost, path, data, out)
		if err != nil || status != http.StatusTooManyRequests {
			return status, throttled, err
		}
		throttled++
		if attempt >= c.retries {
			return status, throttled, ErrThrottled
		}
		select {
		case <-ctx.Done():
			return status, throttled, ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
}

// get decodes a JSON response into out and returns the status code.
func (c *client) get(ctx context.Context, path string, out any) (int, error) {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
