package adapters

import "context"

// HTTPResponse represents the response from an HTTP request.
type HTTPResponse struct {
	OK     bool
	Status int
	Body   string
}

// HTTPAdapter is an interface for HTTP communication.
// Implement this interface to use custom HTTP clients.
type HTTPAdapter interface {
	// Send posts payload as JSON to the specified endpoint.
	//
	// Parameters:
	//   - ctx: Bounds the request
	//   - endpoint: The ingestion URL
	//   - payload: A single Event, or a slice of events
	//   - headers: Headers to set on top of Content-Type
	//
	// Returns the HTTP response, or an error when no response was received.
	Send(ctx context.Context, endpoint string, payload any, headers map[string]string) (*HTTPResponse, error)
}
