package catalyst

import (
	"context"
	"reflect"
	"testing"
	"time"
)

// TestContractCompliance validates the public API signatures
func TestContractCompliance(t *testing.T) {
	t.Run("NewClient signature", func(t *testing.T) {
		funcType := reflect.TypeOf(NewClient)

		if funcType.NumIn() != 1 || funcType.In(0) != reflect.TypeOf(ClientConfig{}) {
			t.Errorf("NewClient should take a ClientConfig, got %v", funcType)
		}
		if funcType.NumOut() != 2 || funcType.Out(1).Name() != "error" {
			t.Errorf("NewClient should return (*Client, error), got %v", funcType)
		}
	})

	t.Run("Required methods exist", func(t *testing.T) {
		clientType := reflect.TypeOf(&Client{})

		requiredMethods := []string{
			"Identify",
			"Track",
			"Flush",
			"Restart",
			"Stopped",
			"Initialized",
			"Identity",
			"Close",
		}

		for _, methodName := range requiredMethods {
			if _, ok := clientType.MethodByName(methodName); !ok {
				t.Errorf("Required method %s not found", methodName)
			}
		}
	})

	t.Run("Method signatures", func(t *testing.T) {
		client := &Client{}
		clientValue := reflect.ValueOf(client)
		errorType := reflect.TypeOf((*error)(nil)).Elem()
		ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()

		// Track(string, any, Metadata) error
		trackType := clientValue.MethodByName("Track").Type()
		if trackType.NumIn() != 3 || trackType.In(0).Kind() != reflect.String || trackType.NumOut() != 1 || trackType.Out(0) != errorType {
			t.Error("Track should take (eventType string, value any, metadata Metadata) and return error")
		}

		// Identify(Identity) error
		identifyType := clientValue.MethodByName("Identify").Type()
		if identifyType.NumIn() != 1 || identifyType.In(0) != reflect.TypeOf(Identity{}) || identifyType.Out(0) != errorType {
			t.Error("Identify should take an Identity and return error")
		}

		// Flush(context.Context) error
		flushType := clientValue.MethodByName("Flush").Type()
		if flushType.NumIn() != 1 || flushType.In(0) != ctxType || flushType.Out(0) != errorType {
			t.Error("Flush should take a context and return error")
		}

		// Restart() with no return
		restartType := clientValue.MethodByName("Restart").Type()
		if restartType.NumIn() != 0 || restartType.NumOut() != 0 {
			t.Error("Restart should take no parameters and return nothing")
		}
	})
}

// TestEventStructCompliance validates the wire field names
func TestEventStructCompliance(t *testing.T) {
	eventType := reflect.TypeOf(Event{})

	requiredFields := map[string]string{
		"APIKey":       "p_api_key",
		"CustomerID":   "p_customer_id",
		"CustomerName": "p_customer_name,omitempty",
		"EventType":    "p_event_type",
		"Value":        "p_value",
		"Metadata":     "p_metadata",
		"CreatedAt":    "p_created_at,omitempty",
	}

	for fieldName, expectedTag := range requiredFields {
		field, found := eventType.FieldByName(fieldName)
		if !found {
			t.Errorf("Required field %s not found in Event struct", fieldName)
			continue
		}
		if tag := field.Tag.Get("json"); tag != expectedTag {
			t.Errorf("Field %s has json tag %q, expected %q", fieldName, tag, expectedTag)
		}
	}
}

// TestContractBehavior validates behavior around the identify and stop lifecycle
func TestContractBehavior(t *testing.T) {
	t.Run("Track before Identify is an error", func(t *testing.T) {
		client, _ := newQuietClient(t)
		if err := client.Track("test", nil, nil); err == nil {
			t.Error("Track before Identify should fail")
		}
	})

	t.Run("Track after Close returns ErrClosed", func(t *testing.T) {
		client, _ := newQuietClient(t)
		client.Identify(Identity{CustomerID: "c1"})
		client.Close(context.Background())

		if err := client.Track("test", nil, nil); err != ErrClosed {
			t.Errorf("Track after Close should return ErrClosed, got: %v", err)
		}
	})

	t.Run("Identity is empty before Identify", func(t *testing.T) {
		client, _ := newQuietClient(t)
		if client.Identity() != (Identity{}) {
			t.Error("expected an empty identity")
		}
	})
}

// TestReliability performs reliability and stress testing
func TestReliability(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping reliability tests in short mode")
	}

	t.Run("Concurrent identify and track", func(t *testing.T) {
		httpAdapter := &mockHTTPAdapter{}
		hub := newTestHub(t, httpAdapter, func(c *HubConfig) {
			c.MaxRequestsPerSecond = 1000
			c.MaxBatchSize = 50
		})
		client, _ := NewClient(ClientConfig{APIKey: "org_test", Hub: hub})
		client.Identify(Identity{CustomerID: "c0"})

		done := make(chan bool, 50)
		for i := 0; i < 25; i++ {
			go func(id int) {
				defer func() { done <- true }()
				for j := 0; j < 10; j++ {
					client.Track("concurrent_test", j, Metadata{"id": id})
				}
			}(i)
		}
		for i := 0; i < 25; i++ {
			go func(id int) {
				defer func() { done <- true }()
				client.Identify(Identity{CustomerID: "c" + string(rune('a'+id))})
			}(i)
		}
		for i := 0; i < 50; i++ {
			<-done
		}

		waitFor(t, 5*time.Second, func() bool { return hub.Len() == 0 && hub.State() == StateIdle })

		sent := 0
		for _, c := range httpAdapter.Calls() {
			for _, e := range c.events {
				if e.CustomerID == "" {
					t.Fatal("event sent without a customer id")
				}
			}
			sent += len(c.events)
		}
		if sent != 250 {
			t.Fatalf("expected 250 events, got %d", sent)
		}
	})
}
