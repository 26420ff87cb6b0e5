package catalyst

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/customercatalyst/catalyst-go/adapters"
)

// newQuietClient builds a client on a hub that will not send for about a
// second, so queued events can be inspected.
func newQuietClient(t *testing.T, mutate ...func(*HubConfig)) (*Client, *mockHTTPAdapter) {
	t.Helper()
	httpAdapter := &mockHTTPAdapter{}
	mutate = append([]func(*HubConfig){func(c *HubConfig) { c.MaxRequestsPerSecond = 1 }}, mutate...)
	hub := newTestHub(t, httpAdapter, mutate...)
	primeLimiter(hub)

	client, err := NewClient(ClientConfig{APIKey: "org_test", Hub: hub})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client, httpAdapter
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	hub := newTestHub(t, &mockHTTPAdapter{})

	for _, key := range []string{"", "   "} {
		_, err := NewClient(ClientConfig{APIKey: key, Hub: hub})
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected ConfigurationError for %q, got %v", key, err)
		}
		if cerr.Field != "APIKey" {
			t.Fatalf("expected APIKey field, got %s", cerr.Field)
		}
	}
}

func TestNewClient_WarnsOnUnprefixedKey(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	hub := newTestHub(t, &mockHTTPAdapter{})

	_, err := NewClient(ClientConfig{
		APIKey:        "legacy-key",
		Hub:           hub,
		LoggerAdapter: adapters.WrapZapLogger(zap.New(core)),
	})
	if err != nil {
		t.Fatalf("unprefixed key should be accepted, got %v", err)
	}
	if logs.FilterMessageSnippet("prefix").Len() != 1 {
		t.Fatal("expected a warning about the key prefix")
	}
}

func TestClient_TrackBeforeIdentify(t *testing.T) {
	client, _ := newQuietClient(t)

	err := client.Track("login", nil, nil)
	var nerr *NotIdentifiedError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotIdentifiedError, got %v", err)
	}
	if client.Hub().Len() != 0 {
		t.Fatal("expected nothing to be queued")
	}
	if client.Initialized() {
		t.Fatal("expected client not to be initialized")
	}
}

func TestClient_IdentifyRequiresCustomerID(t *testing.T) {
	client, _ := newQuietClient(t)

	err := client.Identify(Identity{CustomerID: "  ", CustomerName: "Acme"})
	var aerr *InvalidArgumentError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}
	if client.Initialized() {
		t.Fatal("failed identify must not initialize the client")
	}
}

func TestClient_TrackQueuesEvent(t *testing.T) {
	client, _ := newQuietClient(t)

	if err := client.Identify(Identity{CustomerID: "c1", CustomerName: "Acme"}); err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if err := client.Track("login", 3, Metadata{"plan": "pro"}); err != nil {
		t.Fatalf("track failed: %v", err)
	}

	pending := client.Hub().Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued event, got %d", len(pending))
	}
	event := pending[0]
	if event.APIKey != "org_test" || event.CustomerID != "c1" || event.CustomerName != "Acme" {
		t.Fatalf("unexpected identity on event: %+v", event)
	}
	if event.EventType != "login" || event.Value != 3 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["plan"] != "pro" {
		t.Fatalf("expected plan metadata, got %v", event.Metadata)
	}
	if event.CreatedAt != nil {
		t.Fatal("expected no created_at unless enabled")
	}
}

func TestClient_TrackValueCoercion(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  float64
	}{
		{"nil", nil, 1},
		{"string", "abc", 1},
		{"int", 3, 3},
		{"uint8", uint8(7), 7},
		{"float32", float32(2.5), 2.5},
		{"negative", -4.25, -4.25},
		{"zero", 0, 0},
		{"NaN", math.NaN(), 1},
		{"Inf", math.Inf(1), 1},
		{"bool", true, 1},
	}

	client, _ := newQuietClient(t)
	client.Identify(Identity{CustomerID: "c1"})

	for _, tc := range cases {
		if err := client.Track(tc.name, tc.value, nil); err != nil {
			t.Fatalf("%s: track failed: %v", tc.name, err)
		}
	}

	pending := client.Hub().Pending()
	for i, tc := range cases {
		if pending[i].Value != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, pending[i].Value)
		}
	}
}

func TestClient_TrackRejectsInvalidEventType(t *testing.T) {
	client, _ := newQuietClient(t)
	client.Identify(Identity{CustomerID: "c1"})

	for _, eventType := range []string{"", "   ", strings.Repeat("x", 256)} {
		err := client.Track(eventType, 1, nil)
		var aerr *InvalidArgumentError
		if !errors.As(err, &aerr) {
			t.Fatalf("expected InvalidArgumentError for %q, got %v", eventType, err)
		}
	}

	if err := client.Track(strings.Repeat("x", 255), 1, nil); err != nil {
		t.Fatalf("expected 255-character event type to be accepted, got %v", err)
	}
	if client.Hub().Len() != 1 {
		t.Fatalf("expected only the valid event queued, got %d", client.Hub().Len())
	}
}

func TestClient_MetadataIsCopied(t *testing.T) {
	client, _ := newQuietClient(t)
	client.Identify(Identity{CustomerID: "c1"})

	metadata := Metadata{"plan": "pro"}
	client.Track("upgrade", 1, metadata)
	metadata["plan"] = "enterprise"
	metadata["extra"] = true

	event := client.Hub().Pending()[0]
	if event.Metadata["plan"] != "pro" || len(event.Metadata) != 1 {
		t.Fatalf("queued metadata changed with caller's map: %v", event.Metadata)
	}
}

func TestClient_ReidentifyKeepsQueuedIdentity(t *testing.T) {
	client, _ := newQuietClient(t)

	client.Identify(Identity{CustomerID: "c1", CustomerName: "Acme"})
	client.Track("first", 1, nil)
	client.Identify(Identity{CustomerID: "c2"})
	client.Track("second", 1, nil)

	pending := client.Hub().Pending()
	if pending[0].CustomerID != "c1" || pending[0].CustomerName != "Acme" {
		t.Fatalf("expected first event to keep c1, got %+v", pending[0])
	}
	if pending[1].CustomerID != "c2" || pending[1].CustomerName != "" {
		t.Fatalf("expected second event to carry c2 with no name, got %+v", pending[1])
	}
	if client.Identity().CustomerID != "c2" {
		t.Fatal("expected last identify to win")
	}
}

func TestClient_IncludeCreatedAt(t *testing.T) {
	client, _ := newQuietClient(t, func(c *HubConfig) { c.IncludeCreatedAt = true })
	client.Identify(Identity{CustomerID: "c1"})

	before := time.Now().UTC()
	client.Track("login", 1, nil)

	event := client.Hub().Pending()[0]
	if event.CreatedAt == nil {
		t.Fatal("expected created_at to be stamped")
	}
	if event.CreatedAt.Before(before.Add(-time.Second)) {
		t.Fatalf("unexpected created_at %v", event.CreatedAt)
	}
}

func TestClient_FatalErrorDropsFurtherTracks(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	httpAdapter.respond = func(n int) (*HTTPResponse, error) {
		return statusResponse(401, "Invalid API key")
	}
	hub := newTestHub(t, httpAdapter)
	client, _ := NewClient(ClientConfig{APIKey: "org_bad", Hub: hub})
	client.Identify(Identity{CustomerID: "c1"})

	if err := client.Track("login", 1, nil); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	waitFor(t, time.Second, client.Stopped)

	if err := client.Track("login", 1, nil); err != nil {
		t.Fatalf("expected track while stopped to return nil, got %v", err)
	}
	if hub.Len() != 0 {
		t.Fatalf("expected nothing queued while stopped, got %d", hub.Len())
	}
	if httpAdapter.CallCount() != 1 {
		t.Fatalf("expected exactly one request, got %d", httpAdapter.CallCount())
	}

	client.Restart()
	if client.Stopped() {
		t.Fatal("expected restart to clear the halt")
	}
}

func TestClient_SharedHub(t *testing.T) {
	client1, _ := newQuietClient(t)
	client2, err := NewClient(ClientConfig{APIKey: "org_other", Hub: client1.Hub()})
	if err != nil {
		t.Fatalf("failed to create second client: %v", err)
	}

	client1.Identify(Identity{CustomerID: "c1"})
	client2.Identify(Identity{CustomerID: "c2"})
	client1.Track("a", 1, nil)
	client2.Track("b", 1, nil)

	pending := client1.Hub().Pending()
	if len(pending) != 2 {
		t.Fatalf("expected both clients to share one queue, got %d", len(pending))
	}
	if pending[0].APIKey != "org_test" || pending[1].APIKey != "org_other" {
		t.Fatalf("expected each event to carry its client's key, got %s and %s", pending[0].APIKey, pending[1].APIKey)
	}
	if pending[1].CustomerID != "c2" {
		t.Fatal("expected identities to stay per client")
	}
}

func TestClient_Flush(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	hub := newTestHub(t, httpAdapter)
	client, _ := NewClient(ClientConfig{APIKey: "org_test", Hub: hub})
	client.Identify(Identity{CustomerID: "c1"})

	client.Track("login", 1, nil)
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return httpAdapter.CallCount() == 1 && hub.Len() == 0 })
}

func TestClient_Close(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	hub := newTestHub(t, httpAdapter)
	primeLimiter(hub)
	client, _ := NewClient(ClientConfig{APIKey: "org_test", Hub: hub})
	client.Identify(Identity{CustomerID: "c1"})

	for i := 0; i < 3; i++ {
		client.Track("login", i, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if hub.Len() != 0 {
		t.Fatalf("expected close to drain the queue, got %d", hub.Len())
	}

	if err := client.Track("login", 1, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := client.Close(ctx); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestClient_ConcurrentTrack(t *testing.T) {
	httpAdapter := &mockHTTPAdapter{}
	hub := newTestHub(t, httpAdapter, func(c *HubConfig) {
		c.MaxRequestsPerSecond = 1000
		c.MaxBatchSize = 100
	})
	client, _ := NewClient(ClientConfig{APIKey: "org_test", Hub: hub})
	client.Identify(Identity{CustomerID: "c1"})

	var wg sync.WaitGroup
	for g := 0; g < 100; g++ {
		wg.Go(func() {
			for i := 0; i < 10; i++ {
				client.Track("concurrent", i, Metadata{"goroutine": g})
			}
		})
	}
	wg.Wait()

	waitFor(t, 5*time.Second, func() bool { return hub.Len() == 0 && hub.State() == StateIdle })

	sent := 0
	for _, c := range httpAdapter.Calls() {
		sent += len(c.events)
	}
	if sent != 1000 {
		t.Fatalf("expected 1000 events delivered, got %d", sent)
	}
}
