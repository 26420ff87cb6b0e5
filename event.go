package catalyst

import (
	"math"
	"reflect"
	"strings"
	"time"
)

// newEvent snapshots the session into an Event.
func newEvent(session sessionSnapshot, eventType string, value any, metadata Metadata, stamp bool) (Event, error) {
	if err := validateEventType(eventType); err != nil {
		return Event{}, err
	}

	event := Event{
		APIKey:       session.apiKey,
		CustomerID:   session.customerID,
		CustomerName: session.customerName,
		EventType:    eventType,
		Value:        coerceValue(value),
		Metadata:     copyMetadata(metadata),
	}
	if stamp {
		now := time.Now().UTC()
		event.CreatedAt = &now
	}
	return event, nil
}

func validateEventType(eventType string) error {
	if strings.TrimSpace(eventType) == "" {
		return &InvalidArgumentError{Argument: "eventType", Reason: "cannot be empty"}
	}
	if len(eventType) > maxEventTypeLength {
		return &InvalidArgumentError{Argument: "eventType", Reason: "cannot exceed 255 characters"}
	}
	return nil
}

// coerceValue converts any numeric kind to float64. Everything else,
// including NaN and infinities which JSON cannot carry, becomes 1.
func coerceValue(value any) float64 {
	if value == nil {
		return 1
	}

	rv := reflect.ValueOf(value)
	var f float64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	default:
		return 1
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return f
}

// copyMetadata detaches the top level of metadata from the caller's map.
func copyMetadata(metadata Metadata) Metadata {
	if metadata == nil {
		return nil
	}
	result := make(Metadata, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}
