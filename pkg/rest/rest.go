// Package rest is the JSON-over-HTTP client shared by the translation,
// speech and classification providers.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UserAgent is sent with every request.
const UserAgent = "cropcare-go/1.0"

// maxErrorBody limits how much of an error body is kept in an Error.
const maxErrorBody = 512

// Error is a non-2xx response.
type Error struct {
	Service    string
	HTTPStatus int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.HTTPStatus, e.Body)
}

// IsRateLimit reports whether the service rejected the call for quota.
func (e *Error) IsRateLimit() bool { return e.HTTPStatus == http.StatusTooManyRequests }

// IsServerError reports a 5xx status.
func (e *Error) IsServerError() bool { return e.HTTPStatus >= 500 }

// AsError extracts *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Client sends JSON requests to one service.
type Client struct {
	// Service names the remote in errors.
	Service string

	BaseURL string
	HTTP    *http.Client

	// Header is added to every request.
	Header http.Header
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// Do sends a request and decodes a JSON response into result. A nil body
// sends no payload; a nil result discards the response.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request body: %w", c.Service, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Service, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", c.Service, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response body: %w", c.Service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(data)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return &Error{Service: c.Service, HTTPStatus: resp.StatusCode, Body: msg}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", c.Service, err)
	}
	return nil
}
