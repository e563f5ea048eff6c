package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
)

// Client calls the Messages API. The zero HTTPClient has no timeout because
// streaming responses can be long-lived; cancellation flows through the
// request context.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient returns a client against the production endpoint.
func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 0,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) do(ctx context.Context, req *Request) (*http.Response, error) {
	if c.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post messages: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

// Complete sends a blocking (non-streaming) request and decodes the full
// response envelope.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	req.Stream = false
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Stream sends a streaming request and returns the SSE body. The caller owns
// the reader and must Close it; decoding is the stream package's job.
func (c *Client) Stream(ctx context.Context, req *Request) (io.ReadCloser, error) {
	req.Stream = true
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// decodeAPIError maps a non-2xx response body onto *APIError. An undecodable
// body still yields a typed error carrying the status and raw text.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var er ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Type != "" {
		return er.AsAPIError(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Type:       "api_error",
		Message:    string(bytes.TrimSpace(raw)),
	}
}
