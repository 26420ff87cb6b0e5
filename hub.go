package catalyst

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/customercatalyst/catalyst-go/adapters"
)

// Hub is the shared queue, dispatcher and transport. Every Client built on
// the same Hub feeds one dispatch stream and one rate limit.
type Hub struct {
	config     HubConfig
	queue      *Queue
	transport  *Transport
	dispatcher *Dispatcher
	logger     LoggerAdapter
	metrics    *Metrics
	hookOnce   sync.Once
}

// NewHub validates config, applies defaults and builds an idle hub.
func NewHub(config HubConfig) (*Hub, error) {
	if strings.TrimSpace(config.Endpoint) == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.MaxRequestsPerSecond == 0 {
		config.MaxRequestsPerSecond = DefaultMaxRequestsPerSecond
	}
	if config.MaxBatchSize == 0 {
		config.MaxBatchSize = DefaultMaxBatchSize
	}
	if config.BeaconTimeout <= 0 {
		config.BeaconTimeout = DefaultBeaconTimeout
	}

	if config.MaxRequestsPerSecond < 0 {
		return nil, &ConfigurationError{Field: "MaxRequestsPerSecond", Reason: "must be positive"}
	}
	if config.MaxBatchSize < 0 {
		return nil, &ConfigurationError{Field: "MaxBatchSize", Reason: "must be positive"}
	}
	if config.Endpoint == DefaultEndpoint && strings.TrimSpace(config.ServiceKey) == "" {
		return nil, &ConfigurationError{Field: "ServiceKey", Reason: "is required for the hosted endpoint"}
	}

	if config.HTTPAdapter == nil {
		config.HTTPAdapter = adapters.NewNetHTTPAdapter(config.HTTPTimeout)
	}
	if config.LoggerAdapter == nil {
		config.LoggerAdapter = adapters.NewZapLoggerAdapter(adapters.LogLevelWarn, adapters.LogFormatText)
	}

	queue := NewQueue()
	transport := NewTransport(config.Endpoint, config.ServiceKey, config.HTTPAdapter)
	dispatcher := NewDispatcher(
		DispatcherConfig{
			MaxRequestsPerSecond: config.MaxRequestsPerSecond,
			MaxBatchSize:         config.MaxBatchSize,
		},
		queue,
		transport,
		NewClassifier(config.FatalPatterns, config.FatalCodes),
		config.LoggerAdapter,
		config.Metrics,
	)

	return &Hub{
		config:     config,
		queue:      queue,
		transport:  transport,
		dispatcher: dispatcher,
		logger:     config.LoggerAdapter,
		metrics:    config.Metrics,
	}, nil
}

var defaultHub struct {
	mu     sync.Mutex
	hub    *Hub
	config *HubConfig
}

// ConfigureDefaultHub sets the configuration DefaultHub will be built with.
// It fails once the default hub exists.
func ConfigureDefaultHub(config HubConfig) error {
	defaultHub.mu.Lock()
	defer defaultHub.mu.Unlock()

	if defaultHub.hub != nil {
		return errors.New("catalyst: default hub already in use")
	}
	if _, err := NewHub(config); err != nil {
		return err
	}
	defaultHub.config = &config
	return nil
}

// DefaultHub returns the process-wide hub, creating it on first use. It
// panics if ConfigureDefaultHub has not supplied a usable configuration, such
// as a service key for the hosted endpoint.
func DefaultHub() *Hub {
	hub, err := loadDefaultHub()
	if err != nil {
		panic(err)
	}
	return hub
}

func loadDefaultHub() (*Hub, error) {
	defaultHub.mu.Lock()
	defer defaultHub.mu.Unlock()

	if defaultHub.hub == nil {
		var config HubConfig
		if defaultHub.config != nil {
			config = *defaultHub.config
		}
		hub, err := NewHub(config)
		if err != nil {
			return nil, err
		}
		defaultHub.hub = hub
	}
	return defaultHub.hub, nil
}

func (h *Hub) enqueue(event Event) error {
	return h.dispatcher.Enqueue(event)
}

// Flush forces one dispatch cycle.
func (h *Hub) Flush(ctx context.Context) error {
	return h.dispatcher.Flush(ctx)
}

// Drain sends queued events until the queue is empty or ctx ends.
func (h *Hub) Drain(ctx context.Context) error {
	return h.dispatcher.Drain(ctx)
}

// Restart recovers from a fatal halt. Queued events are discarded.
func (h *Hub) Restart() {
	h.dispatcher.Restart()
}

// Stopped reports whether a fatal error halted dispatch.
func (h *Hub) Stopped() bool {
	return h.dispatcher.Stopped()
}

// State reports the dispatcher phase.
func (h *Hub) State() DispatcherState {
	return h.dispatcher.State()
}

// Pending returns a copy of the queued events, oldest first.
func (h *Hub) Pending() []Event {
	return h.queue.ToSlice()
}

// Len returns the number of queued events.
func (h *Hub) Len() int {
	return h.queue.Len()
}

// Logger returns the hub's logger.
func (h *Hub) Logger() LoggerAdapter {
	return h.logger
}

// Shutdown stops dispatching, drains while ctx allows and then hands any
// leftovers to the unload beacon.
func (h *Hub) Shutdown(ctx context.Context) error {
	err := h.dispatcher.Shutdown(ctx)
	if h.queue.IsEmpty() {
		return err
	}

	h.logger.Warn("Events left after shutdown drain", "count", h.queue.Len())
	if beaconErr := <-h.Unload(); beaconErr != nil && err == nil {
		err = beaconErr
	}
	return err
}
