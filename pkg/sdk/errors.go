package sdk

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies an APIError into the panel's error taxonomy.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindCORS         ErrorKind = "cors"
	KindTimeout      ErrorKind = "timeout"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindRateLimited  ErrorKind = "rate_limited"
	KindServer       ErrorKind = "server"
	KindMalformed    ErrorKind = "malformed"
)

// APIError is the normalized failure every client operation resolves to.
// Status is the original HTTP status when a response was received, zero
// otherwise. RetryAfter is populated for rate-limited responses.
type APIError struct {
	Kind       ErrorKind
	Message    string
	Status     int
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether the caller may reasonably retry the request
// after a delay. Retry policy itself belongs to the caller.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimited, KindServer:
		return true
	}
	return false
}

// Classify turns a transport error or a non-2xx response into an
// APIError. Priority order: transport failures without a response map to
// network, cors, or timeout; then statuses 401, 403, 404, 429, and 5xx
// map to their kinds; anything else falls through to malformed.
func Classify(resp *http.Response, err error) *APIError {
	if err != nil {
		return classifyTransport(err)
	}
	if resp == nil {
		return &APIError{Kind: KindNetwork, Message: "no response received"}
	}

	message, retryAfter := decodeFailure(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &APIError{Kind: KindUnauthorized, Message: message, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusForbidden:
		return &APIError{Kind: KindForbidden, Message: message, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return &APIError{Kind: KindNotFound, Message: message, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &APIError{Kind: KindRateLimited, Message: message, Status: resp.StatusCode, RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		return &APIError{Kind: KindServer, Message: message, Status: resp.StatusCode}
	default:
		return &APIError{Kind: KindMalformed, Message: message, Status: resp.StatusCode}
	}
}

func classifyTransport(err error) *APIError {
	switch {
	case errors.Is(err, context.Canceled):
		return &APIError{Kind: KindTimeout, Message: "cancelled"}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Kind: KindTimeout, Message: "request timed out"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Message: "request timed out"}
	}

	// A fetch rejected by the browser's cross-origin policy surfaces as
	// an opaque transport error naming CORS. Go/WASM is the only runtime
	// where this branch fires.
	msg := err.Error()
	if strings.Contains(msg, "CORS") || strings.Contains(msg, "cross-origin") {
		return &APIError{Kind: KindCORS, Message: "request blocked by cross-origin policy"}
	}

	return &APIError{Kind: KindNetwork, Message: msg}
}

// decodeFailure extracts the stable message from the error envelope and
// the retry delay for 429 responses. Falls back to the status text when
// the body is not the expected envelope.
func decodeFailure(resp *http.Response) (string, time.Duration) {
	var env errorEnvelope
	if decodeInto(resp, &env) == nil && env.Error != "" {
		return env.Error, retryDelay(resp, env)
	}
	return http.StatusText(resp.StatusCode), retryDelay(resp, env)
}

func retryDelay(resp *http.Response, env errorEnvelope) time.Duration {
	if env.RetryAfterMs > 0 {
		return time.Duration(env.RetryAfterMs) * time.Millisecond
	}
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
