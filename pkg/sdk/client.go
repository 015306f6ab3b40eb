package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultReadTimeout   = 10 * time.Second
	defaultUploadTimeout = 30 * time.Second

	correlationHeader = "X-Correlation-ID"

	maxResponseBytes = 4 << 20
)

// TokenProvider yields the current bearer token, or an empty string when
// no token is available. The client attaches Authorization only for
// non-empty tokens.
type TokenProvider func() string

// OutcomeSink observes whether a request reached the service at all.
// The connection manager registers one to track reachability without
// issuing dedicated probes.
type OutcomeSink func(reached bool)

// Client executes JSON requests against the console API and resolves
// every call to either a decoded payload or an APIError. It never
// panics across its boundary and never retries.
type Client struct {
	httpClient *http.Client

	mu            sync.RWMutex
	baseURL       string
	tokenProvider TokenProvider
	onOutcome     OutcomeSink
	onAuthInvalid func()

	nonce   string
	counter atomic.Uint64
}

// ClientOption mutates a Client at construction time.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the API server at baseURL. The base
// URL may be empty and set later; requests fail with a network error
// until one is configured.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		nonce:      uuid.NewString()[:8],
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// SetBaseURL points the client at a different API server.
func (c *Client) SetBaseURL(url string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(url, "/")
	c.mu.Unlock()
}

// BaseURL returns the currently configured API server address.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetTokenProvider installs the credential source consulted per request.
func (c *Client) SetTokenProvider(fn TokenProvider) {
	c.mu.Lock()
	c.tokenProvider = fn
	c.mu.Unlock()
}

// SetOutcomeSink installs the reachability callback invoked after every
// request attempt.
func (c *Client) SetOutcomeSink(fn OutcomeSink) {
	c.mu.Lock()
	c.onOutcome = fn
	c.mu.Unlock()
}

// SetAuthInvalidSink installs the callback invoked whenever a request
// resolves to unauthorized, so the session layer can react without the
// client importing it.
func (c *Client) SetAuthInvalidSink(fn func()) {
	c.mu.Lock()
	c.onAuthInvalid = fn
	c.mu.Unlock()
}

// RequestOptions tune a single request.
type RequestOptions struct {
	// Timeout bounds the request end to end. Zero means the read
	// default; uploads should pass UploadTimeout.
	Timeout time.Duration
	// SkipAuth suppresses the Authorization header even when a token
	// provider is configured.
	SkipAuth bool
}

// RequestOption mutates RequestOptions.
type RequestOption func(*RequestOptions)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *RequestOptions) {
		o.Timeout = d
	}
}

// WithUploadTimeout applies the longer upload deadline.
func WithUploadTimeout() RequestOption {
	return func(o *RequestOptions) {
		o.Timeout = defaultUploadTimeout
	}
}

// WithoutAuth marks the request as anonymous.
func WithoutAuth() RequestOption {
	return func(o *RequestOptions) {
		o.SkipAuth = true
	}
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) *APIError {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) *APIError {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) *APIError {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) *APIError {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do executes one request. A nil out discards the response body. The
// returned APIError is nil exactly when the request succeeded with a
// 2xx status and the body decoded cleanly.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) *APIError {
	options := RequestOptions{Timeout: defaultReadTimeout}
	for _, fn := range opts {
		fn(&options)
	}

	base := c.BaseURL()
	if base == "" {
		return &APIError{Kind: KindNetwork, Message: "no server address configured"}
	}

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindMalformed, Message: fmt.Sprintf("encode request body: %v", err)}
		}
		payload = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, base+path, payload)
	if err != nil {
		return &APIError{Kind: KindMalformed, Message: fmt.Sprintf("build request: %v", err)}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(correlationHeader, c.correlationID())

	if !options.SkipAuth {
		c.mu.RLock()
		provider := c.tokenProvider
		c.mu.RUnlock()
		if provider != nil {
			if token := provider(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
	}

	resp, err := c.httpClient.Do(req)
	c.notifyOutcome(err == nil)
	if err != nil {
		return classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := Classify(resp, nil)
		if apiErr.Kind == KindUnauthorized {
			c.notifyAuthInvalid()
		}
		return apiErr
	}

	if out == nil {
		resp.Body.Close()
		return nil
	}
	if err := decodeInto(resp, out); err != nil {
		return &APIError{Kind: KindMalformed, Message: fmt.Sprintf("decode response body: %v", err), Status: resp.StatusCode}
	}
	return nil
}

// correlationID produces "<nonce>-<n>" where n increases monotonically
// per client instance.
func (c *Client) correlationID() string {
	return fmt.Sprintf("%s-%d", c.nonce, c.counter.Add(1))
}

func (c *Client) notifyOutcome(reached bool) {
	c.mu.RLock()
	sink := c.onOutcome
	c.mu.RUnlock()
	if sink != nil {
		sink(reached)
	}
}

func (c *Client) notifyAuthInvalid() {
	c.mu.RLock()
	fn := c.onAuthInvalid
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func decodeInto(resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
