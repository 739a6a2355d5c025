// Package httpds implements a data source that downloads its input over HTTP,
// retrying transient failures with exponential backoff.
package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tmdbetl/internal/config"
	"tmdbetl/internal/etlerr"
)

// Defaults for zero Config fields.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
)

// Config configures a Source.
type Config struct {
	URL string

	// Timeout bounds the whole of one attempt, body included.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Headers http.Header

	// Transport replaces the default round tripper (tests).
	Transport http.RoundTripper
}

// ConfigFrom converts the pipeline's http source section.
func ConfigFrom(s config.SourceHTTP) Config {
	h := http.Header{}
	for k, v := range s.Headers {
		h.Set(k, v)
	}
	return Config{
		URL:        s.URL,
		Timeout:    time.Duration(s.TimeoutSeconds) * time.Second,
		MaxRetries: s.MaxRetries,
		Headers:    h,
	}
}

// Source is a datasource.Source reading one URL.
type Source struct {
	url            string
	client         *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// wait is swapped in tests to skip real backoff.
	wait func(ctx context.Context, d time.Duration) error
}

// New returns a Source for cfg, applying defaults to zero values.
func New(cfg Config) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Source{
		url:            cfg.URL,
		client:         &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		wait:           sleepContext,
	}
}

// Name returns the URL.
func (s *Source) Name() string { return s.url }

// Open issues a GET and returns the response body. Network errors, 429 and
// 5xx responses are retried; 404 and 410 wrap etlerr.ErrSourceNotFound; any
// other non-2xx status fails at once.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, backoff(s.initialBackoff, attempt-1, s.maxBackoff)); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range s.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("httpds: GET %s: %w", s.url, err)
			continue
		}
		switch code := resp.StatusCode; {
		case code >= 200 && code <= 299:
			return resp.Body, nil
		case retryable(code):
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: GET %s: retryable status %d", s.url, code)
		case code == http.StatusNotFound || code == http.StatusGone:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("httpds: GET %s: status %d: %w", s.url, code, etlerr.ErrSourceNotFound)
		default:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("httpds: GET %s: status %d", s.url, code)
		}
	}
	return nil, lastErr
}

// retryable treats 429 and 5xx as transient.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff returns initial*2^retry, clamped to max.
func backoff(initial time.Duration, retry int, max time.Duration) time.Duration {
	if retry <= 0 {
		return min(initial, max)
	}
	d := initial << retry
	if d <= 0 || d > max {
		return max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
