package catalyst

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-batch identifier so the backend can correlate
// retries of the same batch.
const RequestIDHeader = "X-Request-Id"

// Transport delivers batches to the ingestion endpoint. It does not retry.
type Transport struct {
	endpoint string
	headers  map[string]string
	adapter  HTTPAdapter
}

// NewTransport builds a transport that authenticates with serviceKey.
func NewTransport(endpoint, serviceKey string, adapter HTTPAdapter) *Transport {
	headers := map[string]string{
		"Prefer": "return=minimal",
	}
	if serviceKey != "" {
		headers["apikey"] = serviceKey
		headers["Authorization"] = "Bearer " + serviceKey
	}
	return &Transport{
		endpoint: endpoint,
		headers:  headers,
		adapter:  adapter,
	}
}

// SendEvents posts batch. A single event goes out as a JSON object, more than
// one as a JSON array. Any non-2xx response becomes a *TransportError.
func (t *Transport) SendEvents(ctx context.Context, batch []Event) error {
	var payload any = batch
	if len(batch) == 1 {
		payload = batch[0]
	}
	return t.post(ctx, payload)
}

// SendAll posts events as a JSON array regardless of length.
func (t *Transport) SendAll(ctx context.Context, events []Event) error {
	return t.post(ctx, events)
}

func (t *Transport) post(ctx context.Context, payload any) error {
	headers := make(map[string]string, len(t.headers)+1)
	for k, v := range t.headers {
		headers[k] = v
	}
	headers[RequestIDHeader] = uuid.NewString()

	resp, err := t.adapter.Send(ctx, t.endpoint, payload, headers)
	if err != nil {
		return &TransportError{Err: err}
	}
	if !resp.OK {
		return &TransportError{Status: resp.Status, Body: resp.Body}
	}
	return nil
}
