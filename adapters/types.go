package adapters

import "time"

// Event is a single usage event as it travels over the wire. It carries the
// tenant key and customer identity captured when it was tracked, so it can be
// delivered without reference to the client that produced it.
type Event struct {
	APIKey       string     `json:"p_api_key"`
	CustomerID   string     `json:"p_customer_id"`
	CustomerName string     `json:"p_customer_name,omitempty"`
	EventType    string     `json:"p_event_type"`
	Value        float64    `json:"p_value"`
	Metadata     Metadata   `json:"p_metadata"`
	CreatedAt    *time.Time `json:"p_created_at,omitempty"`
}

// Metadata is the optional structured payload attached to an event.
type Metadata = map[string]any
