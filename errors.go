package catalyst

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Track after Close.
var ErrClosed = errors.New("catalyst: client is closed")

// ConfigurationError reports a missing or invalid setting at construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalyst: invalid configuration: %s %s", e.Field, e.Reason)
}

// InvalidArgumentError reports a malformed argument to Identify or Track.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("catalyst: invalid argument %s: %s", e.Argument, e.Reason)
}

// NotIdentifiedError is returned by Track before a successful Identify.
type NotIdentifiedError struct{}

func (e *NotIdentifiedError) Error() string {
	return "catalyst: must call Identify() before tracking events"
}

// TransportError is a failed delivery attempt. Status is zero when no HTTP
// response was received, in which case Err holds the cause.
type TransportError struct {
	Status int
	Body   string
	Err    error
	// Fatal is set by the dispatcher once the error has been classified.
	Fatal bool
}

func (e *TransportError) Error() string {
	if e.Status == 0 && e.Err != nil {
		return "API Error: " + e.Err.Error()
	}
	return fmt.Sprintf("API Error: %d %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
