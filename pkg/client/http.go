package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	contentTypeJSON     = "application/json"
	sdkUserAgent        = "loveos-go/1.0"
)

// doRequest performs a JSON request. With authenticated set the held token is
// attached, ErrNoToken is returned when there is none, and a 401 response
// clears it.
func (c *Client) doRequest(ctx context.Context, method, path string, authenticated bool, body, result any) error {
	var token string
	if authenticated {
		var err error
		if token, err = c.tokens.Load(); err != nil {
			return err
		}
		if token == "" {
			return ErrNoToken
		}
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(headerUserAgent, sdkUserAgent)
	if body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}
	if token != "" {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if authenticated && resp.StatusCode == http.StatusUnauthorized {
			_ = c.tokens.Clear()
		}
		return parseError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
