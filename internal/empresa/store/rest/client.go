// Package rest talks to a PostgREST-compatible hosted backend over HTTPS.
// The backend offers no multi-request transactions, so RunInTx undoes
// completed writes when a later one fails.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"empresaflow/internal/empresa/store"
	"empresaflow/pkg/platform/circuit"
	"empresaflow/pkg/platform/sentinel"
)

const defaultTimeout = 10 * time.Second

// Client is a minimal PostgREST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuit.Breaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBreaker replaces the default breaker (5 consecutive failures, 5 s cooldown).
func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithHTTPClient replaces the default client (10 s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		breaker:    circuit.New("postgrest"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (c *Client) get(ctx context.Context, table string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, table, query, nil, nil, result)
}

func (c *Client) insert(ctx context.Context, table string, row any) error {
	return c.do(ctx, http.MethodPost, table, nil, row, map[string]string{"Prefer": "return=minimal"}, nil)
}

// patch returns the updated rows.
func (c *Client) patch(ctx context.Context, table string, query url.Values, body, result any) error {
	return c.do(ctx, http.MethodPatch, table, query, body, map[string]string{"Prefer": "return=representation"}, result)
}

func (c *Client) delete(ctx context.Context, table string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, table, query, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body any, headers map[string]string, result any) error {
	endpoint := c.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if !c.breaker.Allow() {
		return fmt.Errorf("%w: %s circuit open", sentinel.ErrUnavailable, c.breaker.Name())
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.RecordFailure()
		}
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, data)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}

// statusError maps a failed response: 409 is a duplicate key, other 4xx a
// rejected write, 5xx an unavailable backend.
func statusError(status int, body []byte) error {
	var apiErr apiError
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusConflict || apiErr.Code == "23505":
		return store.Conflict(message)
	case status >= 500:
		return fmt.Errorf("%w: backend returned %d: %s", sentinel.ErrUnavailable, status, message)
	default:
		return store.Rejected(message)
	}
}

func eq(column string, value any) url.Values {
	return url.Values{column: {fmt.Sprintf("eq.%v", value)}}
}
