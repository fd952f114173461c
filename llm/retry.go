// ABOUTME: Implements the retry policy for LLM calls - bounded retries with
// ABOUTME: exponential delay on rate-limit-class provider failures.
package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	// RetryMaxAttempts bounds the total number of call attempts.
	RetryMaxAttempts = 3
	// RetryBaseDelay is doubled after each failed attempt (1s, 2s).
	RetryBaseDelay = time.Second
)

// IsRateLimited reports whether an error looks like a provider
// rate-limit/resource-exhaustion failure. Providers surface these with a 429
// status or a RESOURCE_EXHAUSTED code in the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// RetryClient wraps a Client with the retry policy. Non-retryable errors
// propagate immediately; rate-limit errors are retried up to RetryMaxAttempts
// total attempts with exponentially growing delays between them.
type RetryClient struct {
	inner  Client
	logger *slog.Logger

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// WithRetry wraps a client with the retry policy.
func WithRetry(inner Client, logger *slog.Logger) *RetryClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryClient{inner: inner, logger: logger, sleep: time.Sleep}
}

// CreateMessage calls the wrapped client, retrying rate-limit failures.
func (r *RetryClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < RetryMaxAttempts; attempt++ {
		resp, err := r.inner.CreateMessage(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
		if attempt == RetryMaxAttempts-1 {
			break
		}
		delay := RetryBaseDelay << attempt
		r.logger.Warn("rate limited, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		r.sleep(delay)
	}
	return nil, lastErr
}

// CreateMessageStream opens a stream, retrying rate-limit failures that occur
// while establishing it. Errors surfaced mid-stream are not retried.
func (r *RetryClient) CreateMessageStream(ctx context.Context, req *Request) (<-chan StreamEvent, error) {
	var lastErr error
	for attempt := 0; attempt < RetryMaxAttempts; attempt++ {
		events, err := r.inner.CreateMessageStream(ctx, req)
		if err == nil {
			return events, nil
		}
		if !IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
		if attempt == RetryMaxAttempts-1 {
			break
		}
		delay := RetryBaseDelay << attempt
		r.logger.Warn("rate limited, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		r.sleep(delay)
	}
	return nil, lastErr
}

var _ Client = (*RetryClient)(nil)
