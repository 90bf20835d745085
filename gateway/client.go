// Package gateway is the request/response side of the backend contract. It
// classifies every failure into a small taxonomy and never retries: the
// remote operations are not idempotent (a repeated add-song duplicates the
// entry), so retry decisions belong to whoever owns the user gesture.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"QRKara/logger"
)

// FailureKind classifies a failed call.
type FailureKind string

const (
	KindNotFound   FailureKind = "not_found"   // 404
	KindNotAllowed FailureKind = "not_allowed" // 405
	KindValidation FailureKind = "validation"  // other 4xx, carries server detail
	KindServer     FailureKind = "server"      // 5xx
	KindNetwork    FailureKind = "network"     // transport-level failure
)

// APIError is the typed failure for any gateway call. Callers must not assume
// the remote side effect happened for any kind, including KindServer: only a
// decoded success response confirms it.
type APIError struct {
	Kind       FailureKind
	StatusCode int
	Detail     string // server-provided message when present
	Err        error  // underlying transport error for KindNetwork
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (status %d)", e.Kind, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Client talks to the venue backend's REST surface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorBody is the backend's error envelope; detail may be a plain string.
type errorBody struct {
	Detail string `json:"detail"`
}

// call performs one request. body is JSON-encoded when non-nil; out is
// JSON-decoded from the response when non-nil. Every non-2xx response becomes
// an *APIError and nothing is retried.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("gateway call failed",
			logger.String("method", method),
			logger.String("path", path),
			logger.ErrorField(err))
		return &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.classify(method, path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
		}
	}
	return nil
}

// classify maps an HTTP failure status to the taxonomy, pulling the server's
// detail message out of the body when it has one.
func (c *Client) classify(method, path string, resp *http.Response) error {
	var detail string
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(raw) > 0 {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Detail != "" {
			detail = eb.Detail
		}
	}

	kind := KindServer
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = KindNotFound
	case resp.StatusCode == http.StatusMethodNotAllowed:
		kind = KindNotAllowed
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		kind = KindValidation
	}

	logger.Warn("gateway call rejected",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.String("kind", string(kind)),
		logger.String("detail", detail))

	return &APIError{Kind: kind, StatusCode: resp.StatusCode, Detail: detail}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}
