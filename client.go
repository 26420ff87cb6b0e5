package catalyst

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
)

// Client is the per-tenant entry point. Clients sharing a Hub share its queue
// and rate limit; each keeps its own identity.
type Client struct {
	session *Session
	hub     *Hub
	logger  LoggerAdapter
	closed  atomic.Bool
}

// NewClient creates a client for config.APIKey. Keys without the "org_"
// prefix are accepted with a warning.
func NewClient(config ClientConfig) (*Client, error) {
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, &ConfigurationError{Field: "APIKey", Reason: "is required"}
	}

	hub := config.Hub
	if hub == nil {
		var err error
		if hub, err = loadDefaultHub(); err != nil {
			return nil, err
		}
	}
	logger := config.LoggerAdapter
	if logger == nil {
		logger = hub.Logger()
	}

	if !strings.HasPrefix(apiKey, TenantKeyPrefix) {
		logger.Warn("API key does not have the expected prefix", "prefix", TenantKeyPrefix)
	}

	client := &Client{
		session: NewSession(apiKey),
		hub:     hub,
		logger:  logger,
	}
	logger.Info("SDK initialized")
	return client, nil
}

// Identify attributes subsequent events to identity. Calling it again
// replaces the identity; events already queued keep the old one.
func (c *Client) Identify(identity Identity) error {
	if err := c.session.Identify(identity); err != nil {
		c.logger.Warn("Identify rejected", "error", err)
		return err
	}

	name := identity.CustomerName
	if name == "" {
		name = identity.CustomerID
	}
	c.logger.Info("Customer identified", "customer", name)
	return nil
}

// Track queues an event. value defaults to 1 unless it is a finite number;
// metadata may be nil. Nothing is sent on the calling goroutine.
//
// Track returns *NotIdentifiedError before Identify and *InvalidArgumentError
// for an empty or oversized eventType. After a fatal delivery error the call
// is logged and dropped until Restart.
func (c *Client) Track(eventType string, value any, metadata Metadata) error {
	if c.closed.Load() {
		return ErrClosed
	}

	snapshot := c.session.snapshot()
	if !snapshot.initialized {
		err := &NotIdentifiedError{}
		c.logger.Warn("Track called before Identify", "eventType", eventType)
		return err
	}

	if c.hub.Stopped() {
		c.logger.Error("SDK stopped due to fatal error. Cannot track events.", "eventType", eventType)
		return nil
	}

	event, err := newEvent(snapshot, eventType, value, metadata, c.hub.config.IncludeCreatedAt)
	if err != nil {
		c.logger.Warn("Track rejected", "error", err)
		return err
	}

	switch err := c.hub.enqueue(event); {
	case errors.Is(err, errStopped):
		c.logger.Error("SDK stopped due to fatal error. Cannot track events.", "eventType", eventType)
		return nil
	case err != nil:
		return err
	}

	c.logger.Debug("Tracking event", "eventType", eventType)
	return nil
}

// Flush forces one dispatch cycle and returns once it completes.
func (c *Client) Flush(ctx context.Context) error {
	return c.hub.Flush(ctx)
}

// Restart clears a fatal halt and empties the shared queue.
func (c *Client) Restart() {
	c.hub.Restart()
}

// Stopped reports whether dispatch is halted after a fatal error.
func (c *Client) Stopped() bool {
	return c.hub.Stopped()
}

// Initialized reports whether Identify has succeeded.
func (c *Client) Initialized() bool {
	return c.session.Initialized()
}

// Identity returns the current identity.
func (c *Client) Identity() Identity {
	return c.session.Identity()
}

// Hub returns the hub the client feeds.
func (c *Client) Hub() *Hub {
	return c.hub
}

// Close rejects further Track calls and drains the shared queue while ctx
// allows. The hub keeps running for other clients.
func (c *Client) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Info("Closing client")
	if c.hub.dispatcher.Closed() {
		return nil
	}
	return c.hub.Drain(ctx)
}
