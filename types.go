package catalyst

import (
	"time"

	"github.com/customercatalyst/catalyst-go/adapters"
)

// Re-export adapter types for convenience
type (
	Event         = adapters.Event
	Metadata      = adapters.Metadata
	HTTPAdapter   = adapters.HTTPAdapter
	HTTPResponse  = adapters.HTTPResponse
	LoggerAdapter = adapters.LoggerAdapter
	LogLevel      = adapters.LogLevel
)

const (
	// DefaultEndpoint is the hosted ingestion RPC.
	DefaultEndpoint = "https://xfjgmzwigomtfmaloeun.supabase.co/rest/v1/rpc/track_event"

	DefaultMaxRequestsPerSecond = 10
	DefaultMaxBatchSize         = 10
	DefaultBeaconTimeout        = 2 * time.Second

	// TenantKeyPrefix marks a well-formed tenant API key.
	TenantKeyPrefix = "org_"

	maxEventTypeLength = 255
)

// Identity names the customer that subsequent events are attributed to.
type Identity struct {
	CustomerID   string
	CustomerName string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// APIKey is the tenant credential copied into every event. Required.
	APIKey string
	// Hub is the shared queue and dispatcher. Nil selects DefaultHub().
	Hub *Hub
	// LoggerAdapter defaults to the hub's logger.
	LoggerAdapter LoggerAdapter
}

// HubConfig configures the shared queue, dispatcher and transport.
type HubConfig struct {
	Endpoint   string
	ServiceKey string

	MaxRequestsPerSecond int
	MaxBatchSize         int

	// HTTPTimeout bounds one ingestion request when HTTPAdapter is nil.
	HTTPTimeout   time.Duration
	BeaconTimeout time.Duration

	// IncludeCreatedAt stamps events with p_created_at. Only enable it for
	// backends that accept the field.
	IncludeCreatedAt bool

	// FatalPatterns and FatalCodes override the classifier defaults when non-empty.
	FatalPatterns []string
	FatalCodes    []string

	HTTPAdapter   HTTPAdapter
	LoggerAdapter LoggerAdapter
	Metrics       *Metrics
}

type DispatcherConfig struct {
	MaxRequestsPerSecond int
	MaxBatchSize         int
}

// MinInterval is the minimum spacing between two ingestion requests.
func (c DispatcherConfig) MinInterval() time.Duration {
	return time.Second / time.Duration(c.MaxRequestsPerSecond)
}
