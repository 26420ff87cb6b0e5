package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds a single ingestion request when no client is supplied.
const DefaultHTTPTimeout = 10 * time.Second

// maxResponseBody caps how much of an error body is kept for classification.
const maxResponseBody = 64 << 10

// NetHTTPAdapter is the standard HTTP adapter implementation using net/http package.
type NetHTTPAdapter struct {
	client *http.Client
}

// Ensure NetHTTPAdapter implements HTTPAdapter interface
var _ HTTPAdapter = (*NetHTTPAdapter)(nil)

// NewNetHTTPAdapter creates a new NetHTTPAdapter instance. A zero timeout
// selects DefaultHTTPTimeout.
func NewNetHTTPAdapter(timeout time.Duration) HTTPAdapter {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &NetHTTPAdapter{
		client: &http.Client{Timeout: timeout},
	}
}

// NewNetHTTPAdapterWithClient wraps an existing http.Client.
func NewNetHTTPAdapterWithClient(client *http.Client) HTTPAdapter {
	return &NetHTTPAdapter{client: client}
}

// Send marshals payload and posts it to endpoint with the given headers.
// Non-2xx responses are not errors; their body is returned as text.
func (h *NetHTTPAdapter) Send(ctx context.Context, endpoint string, payload any, headers map[string]string) (*HTTPResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	result := &HTTPResponse{
		Status: resp.StatusCode,
		OK:     ok,
	}
	if ok {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	result.Body = string(body)
	return result, nil
}
