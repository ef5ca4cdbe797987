// Package search executes finished queries against the repository's remote
// search endpoint.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/pkg/loader"
	"github.com/oakwood-commons/mwq/pkg/logger"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 64 << 20

// Request is the JSON body sent to the endpoint.
type Request struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("search failed: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Client posts queries to a search endpoint.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
	timeout  time.Duration
	logger   logr.Logger
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sends token as a bearer API key.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds each request. It applies to the client passed with
// WithHTTPClient too, without modifying that client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(lgr logr.Logger) Option {
	return func(c *Client) {
		c.logger = lgr
	}
}

// NewClient creates a client for endpoint, a full http(s) URL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("search endpoint is not configured")
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid search endpoint %q", endpoint)
	}
	c := &Client{
		endpoint: u,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logr.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// Search validates q, posts it and returns the result list. Only syntactically
// complete queries are sent. A JSON object wrapping a single list (for example
// {"files": [...]}) is unwrapped.
func (c *Client) Search(ctx context.Context, q, objectType string) ([]any, error) {
	if _, err := query.ValidateComplete(q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	c.checkToken()

	body, err := json.Marshal(Request{Query: q, Type: objectTypeParam(objectType)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	lgr := logger.ForQuery(&c.logger, q, objectType).WithValues("request_id", requestID)
	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	logger.Since(lgr, start, "search response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data), RequestID: requestID}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []any{}, nil
	}
	var decoded any
	if err := loader.DecodeAs(loader.FormatJSON, string(data), &decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return unwrap(decoded), nil
}

func objectTypeParam(objectType string) string {
	if objectType == "object" {
		return ""
	}
	return objectType
}

// checkToken logs a warning for API keys that are expired or not JWTs.
func (c *Client) checkToken() {
	if c.token == "" {
		return
	}
	key, err := loader.DecodeAPIKey(c.token)
	if err != nil {
		c.logger.Info("API key is not a JWT", "error", err.Error())
		return
	}
	if key.Expired(c.now()) {
		c.logger.Info("API key has expired", "login", key.Login, "expires_at", key.ExpiresAt.Format(time.RFC3339))
	}
}

// errorMessage extracts {"message": "..."} from an error body, else the raw text.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := string(bytes.TrimSpace(data))
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200]) + "…"
	}
	return msg
}

func unwrap(decoded any) []any {
	switch v := decoded.(type) {
	case []any:
		return v
	case map[string]any:
		if len(v) == 1 {
			for _, inner := range v {
				if list, ok := inner.([]any); ok {
					return list
				}
			}
		}
	}
	return []any{decoded}
}
