// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 64 << 20

// ErrResponseTooLarge reports a body over the client's size limit. It is
// not retried.
var ErrResponseTooLarge = errors.New("response too large")

// Observer receives one event per request attempt and per retry.
// internal/metrics.Recorder implements it.
type Observer interface {
	ObserveRequest(endpoint, outcome string, d time.Duration)
	ObserveRetry(endpoint string)
}

// Client performs paced GET requests under a retry Policy. Requests are
// issued one at a time by the caller; the limiter spaces them out.
type Client struct {
	HTTP      *http.Client
	Policy    Policy
	UserAgent string

	// Limiter paces attempts. Nil disables pacing.
	Limiter *rate.Limiter

	// Observer is optional.
	Observer Observer

	// MaxBodyBytes caps a response body. Zero means 64 MiB.
	MaxBodyBytes int64
}

// NewClient builds a Client from configuration. Each attempt is bounded by
// httpCfg.Timeout; a timeout counts as a transient failure.
func NewClient(httpCfg types.HTTPConfig, retryCfg types.RetryConfig) *Client {
	c := &Client{
		HTTP:      &http.Client{Timeout: httpCfg.Timeout},
		Policy:    NewPolicy(retryCfg),
		UserAgent: httpCfg.UserAgent,
	}
	if httpCfg.RequestsPerSecond > 0 {
		burst := httpCfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(httpCfg.RequestsPerSecond), burst)
	}
	return c
}

// Get fetches rawURL and returns the response body. Transport errors,
// timeouts and non-200 statuses are retried per c.Policy; when the budget
// runs out the returned error is a *FetchError carrying rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	endpoint := endpointLabel(rawURL)

	policy := c.Policy
	if c.Observer != nil {
		policy.OnRetry = func(int, error) { c.Observer.ObserveRetry(endpoint) }
	}

	var body []byte
	err := policy.Do(ctx, func(ctx context.Context) error {
		b, err := c.attempt(ctx, rawURL, endpoint)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.URL = rawURL
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, rawURL, endpoint string) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, Permanent(fmt.Errorf("waiting for request slot: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("creating request: %w", err))
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit()+1))
	if err != nil {
		c.observe(endpoint, "error", start)
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > c.bodyLimit() {
		c.observe(endpoint, "too_large", start)
		return nil, Permanent(fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.bodyLimit()))
	}
	c.observe(endpoint, "ok", start)
	return body, nil
}

func (c *Client) bodyLimit() int64 {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return maxBodyBytes
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.Observer != nil {
		c.Observer.ObserveRequest(endpoint, outcome, time.Since(start))
	}
}

// endpointLabel reduces a URL to its last path element ("esearch.fcgi").
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return path.Base(u.Path)
}
