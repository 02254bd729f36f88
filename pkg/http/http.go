// Package http provides the HTTP client used to fetch beatmap archives.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cperrin88/beatsync/internal/logger"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "beatsync/1.0"

// Options configures an HTTPClient.
type Options struct {
	// Timeout bounds connecting and waiting for response headers. Body
	// transfer is bounded by the request context only.
	Timeout   time.Duration
	Retries   int
	UserAgent string
	// InitialWait is the first backoff delay, doubled per retry up to MaxWait.
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		Retries:     3,
		UserAgent:   DefaultUserAgent,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
	}
}

// HTTPClient is a Client that retries transient failures with capped
// exponential backoff.
type HTTPClient struct {
	client *http.Client
	opts   Options
}

// NewHTTPClient creates a client with the given options. Zero values fall back
// to DefaultOptions.
func NewHTTPClient(opts Options) *HTTPClient {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.InitialWait <= 0 {
		opts.InitialWait = def.InitialWait
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = def.MaxWait
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = opts.Timeout
	transport.TLSHandshakeTimeout = opts.Timeout

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
		},
		opts: opts,
	}
}

// Get implements Client.
func (hc *HTTPClient) Get(ctx context.Context, u *url.URL) (*http.Response, error) {
	if u == nil {
		return nil, fmt.Errorf("request URL cannot be nil")
	}

	wait := hc.opts.InitialWait
	attempts := hc.opts.Retries + 1
	for attempt := 1; ; attempt++ {
		resp, err := hc.do(ctx, u)
		retry, delay := hc.shouldRetry(ctx, resp, err)
		if !retry || attempt >= attempts {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
		}
		if delay <= 0 {
			delay = wait
		}
		logger.Debug("Retrying request", logger.Fields{
			"url":     u.String(),
			"attempt": attempt,
			"wait":    delay.String(),
			"error":   describe(resp, err),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		wait *= 2
		if wait > hc.opts.MaxWait {
			wait = hc.opts.MaxWait
		}
	}
}

func (hc *HTTPClient) do(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", hc.opts.UserAgent)
	return hc.client.Do(req)
}

// shouldRetry classifies a response. The returned delay is a server-provided
// Retry-After hint, if any.
func (hc *HTTPClient) shouldRetry(ctx context.Context, resp *http.Response, err error) (bool, time.Duration) {
	if ctx.Err() != nil {
		return false, 0
	}
	if err != nil {
		return IsRetryableError(err), 0
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, hc.retryAfter(resp)
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, 0
	default:
		return false, 0
	}
}

func (hc *HTTPClient) retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > hc.opts.MaxWait {
		d = hc.opts.MaxWait
	}
	return d
}

func describe(resp *http.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	return resp.Status
}

// IsRetryableError reports whether a transport error is likely transient.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET,
			syscall.ECONNABORTED,
			syscall.ECONNREFUSED,
			syscall.ETIMEDOUT,
			syscall.ENETUNREACH,
			syscall.EHOSTUNREACH,
			syscall.EPIPE:
			return true
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection reset", "connection refused", "broken pipe", "timeout", "no such host", "temporary failure"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
