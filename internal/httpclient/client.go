package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Shared HTTP client with timeout and connection reuse.
var Default = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

const maxBodyBytes = 32 << 20

// ErrRateLimited is returned when the remote answers 429 twice in a row.
var ErrRateLimited = errors.New("rate limited")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Client wraps an http.Client with fixed headers, a minimum spacing between
// requests and a single retry on 429.
type Client struct {
	HTTP       *http.Client
	Header     http.Header
	Throttle   *Throttle
	RetryAfter time.Duration
}

// New returns a Client on the shared transport with the given timeout.
func New(timeout time.Duration, userAgent string, minInterval time.Duration) *Client {
	hc := Default
	if timeout > 0 && timeout != Default.Timeout {
		hc = &http.Client{Timeout: timeout, Transport: Default.Transport}
	}
	h := http.Header{}
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return &Client{
		HTTP:       hc,
		Header:     h,
		Throttle:   NewThrottle(minInterval),
		RetryAfter: 5 * time.Second,
	}
}

// Get fetches url and returns the body. A 429 is retried once after RetryAfter.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, status, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		slog.Warn("rate limited, retrying once", "url", url, "wait", c.RetryAfter)
		if err := sleep(ctx, c.RetryAfter); err != nil {
			return nil, err
		}
		body, status, err = c.do(ctx, url)
		if err != nil {
			return nil, err
		}
		if status == http.StatusTooManyRequests {
			return nil, fmt.Errorf("GET %s: %w", url, ErrRateLimited)
		}
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Code: status, URL: url}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	if c.Throttle != nil {
		if err := c.Throttle.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	hc := c.HTTP
	if hc == nil {
		hc = Default
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", url, err)
	}
	return body, resp.StatusCode, nil
}

// Throttle enforces a minimum interval between calls. A zero interval never blocks.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

func (t *Throttle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return ctx.Err()
	}
	t.mu.Lock()
	now := time.Now()
	at := t.next
	if at.Before(now) {
		at = now
	}
	t.next = at.Add(t.interval)
	t.mu.Unlock()
	return sleep(ctx, time.Until(at))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
