package gh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"time"
)

const (
	DefaultMaxRetries = 3
	BaseDelay         = 500 * time.Millisecond
	MaxDelay          = 10 * time.Second
)

type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{maxRetries: DefaultMaxRetries, baseDelay: BaseDelay, maxDelay: MaxDelay}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (p retryPolicy) backoffDelay(attempt int) time.Duration {
	delay := min(time.Duration(float64(p.baseDelay)*math.Pow(2, float64(attempt))), p.maxDelay)
	return delay
}

func withRetry[T any](ctx context.Context, p retryPolicy, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoffDelay(attempt - 1)
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if !isRetryable(lastErr) {
			return result, lastErr
		}
	}

	return result, lastErr
}

// retryTransport retries transient failures with exponential backoff. When
// the retries run out on a retryable status, the last response is returned
// so the caller still sees the server's answer.
type retryTransport struct {
	base   http.RoundTripper
	policy retryPolicy
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return t.transport().RoundTrip(req)
	}

	var last *http.Response
	resp, err := withRetry(req.Context(), t.policy, func() (*http.Response, error) {
		reqCopy := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			reqCopy.Body = body
		}

		resp, err := t.transport().RoundTrip(reqCopy)
		if err != nil {
			return nil, err
		}

		if isRetryableStatus(resp.StatusCode) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			resp.Body.Close()
			resp.Body = io.NopCloser(bytes.NewReader(body))
			last = resp
			return nil, &retryableStatusError{StatusCode: resp.StatusCode}
		}

		return resp, nil
	})

	var statusErr *retryableStatusError
	if err != nil && errors.As(err, &statusErr) && last != nil {
		return last, nil
	}
	return resp, err
}

func (t *retryTransport) transport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}

type retryableStatusError struct {
	StatusCode int
}

func (e *retryableStatusError) Error() string {
	return http.StatusText(e.StatusCode)
}

func (e *retryableStatusError) Timeout() bool {
	return true
}

func (e *retryableStatusError) Temporary() bool {
	return true
}
