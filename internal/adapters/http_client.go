package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

const defaultHTTPTimeout = 30 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second
const userAgent = "cargo-add"

// HTTPOptions tunes the registry and git clients. Zero values fall back
// to the defaults above.
type HTTPOptions struct {
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
	Token        string
}

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
	token     string
}

func normalizeHTTPConfig(opts HTTPOptions) httpRetryConfig {
	timeout := time.Duration(opts.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := opts.Retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(opts.RetryDelayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
		token:     strings.TrimSpace(opts.Token),
	}
}

// doRequest issues a GET and retries transport failures, 5xx and 429
// with capped exponential backoff. The caller closes the body.
func doRequest(ctx context.Context, url string, cfg httpRetryConfig) (*http.Response, error) {
	client := &http.Client{Timeout: cfg.timeout}
	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, requestCanceled(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create request").
				WithCause(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if cfg.token != "" {
			req.Header.Set("Authorization", cfg.token)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, requestCanceled(ctx.Err())
			}
			lastErr = err
			if attempt < cfg.retries-1 {
				if !sleepContext(ctx, httpRetryDelay(attempt, cfg)) {
					return nil, requestCanceled(ctx.Err())
				}
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if !sleepContext(ctx, httpRetryDelay(attempt, cfg)) {
				return nil, requestCanceled(ctx.Err())
			}
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func requestCanceled(cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request canceled").
		WithCause(cause)
}
