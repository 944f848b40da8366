package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	requestIDHeader      = "X-Request-ID"
)

// HttpClient is a small JSON client for the carpool API. Token, when set, is
// sent as a bearer credential on every request.
type HttpClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func WithIdempotencyKey(key string) RequestOption {
	return WithHeader(idempotencyKeyHeader, key)
}

func WithRequestID(id string) RequestOption {
	return WithHeader(requestIDHeader, id)
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// APIError is the error envelope returned by every failing endpoint.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error decodes the error envelope. It returns nil for 2xx responses.
func (r *Response) Error() *APIError {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	var apiErr APIError
	if err := r.DecodeJSON(&apiErr); err != nil {
		return &APIError{Message: fmt.Sprintf("status %d: %s", r.StatusCode, r.Body)}
	}
	return &apiErr
}

func (c *HttpClient) GET(path string, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodGet, path, nil, opts...)
}

func (c *HttpClient) POST(path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodPost, path, body, opts...)
}

func (c *HttpClient) PUT(path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodPut, path, body, opts...)
}

func (c *HttpClient) DELETE(path string, opts ...RequestOption) (*Response, error) {
	return c.Do(context.Background(), http.MethodDelete, path, nil, opts...)
}

// WithToken returns a copy of the client that authenticates as token.
func (c *HttpClient) WithToken(token string) *HttpClient {
	clone := *c
	clone.Token = token
	return &clone
}

// Do sends body as JSON when it is non-nil. A []byte body is sent as is.
func (c *HttpClient) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reqBody = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Response: resp, Body: respBody}, nil
}

// WaitForHealthy polls /health until it answers 200 or maxWait elapses.
func (c *HttpClient) WaitForHealthy(maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maxWait)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.Do(ctx, http.MethodGet, "/health", nil)
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not become healthy within %v", maxWait)
		case <-ticker.C:
		}
	}
}

// GetErrorMessage is a test helper that renders a failing response.
func GetErrorMessage(resp *Response) string {
	apiErr := resp.Error()
	if apiErr == nil {
		return ""
	}
	if apiErr.Code == "" {
		return apiErr.Message
	}
	return apiErr.Code + ": " + apiErr.Message
}
