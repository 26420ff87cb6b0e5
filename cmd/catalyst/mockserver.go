package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	catalyst "github.com/customercatalyst/catalyst-go"
)

const trackEventPath = "/rest/v1/rpc/track_event"

type mockServerFlags struct {
	listen     string
	failStatus int
}

func newMockServerCmd(root *rootFlags) *cobra.Command {
	var flags mockServerFlags

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local ingestion endpoint that logs received events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := newMockServer(root.logger, root.cfg.ServiceKey, flags.failStatus)

			listener, err := net.Listen("tcp", flags.listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", flags.listen, err)
			}

			httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 5 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.Serve(listener)
			}()

			root.logger.Info("Mock ingestion server listening", "address", listener.Addr().String(), "path", trackEventPath)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s%s\n", listener.Addr(), trackEventPath)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.listen, "listen", "127.0.0.1:3000", "address to listen on")
	cmd.Flags().IntVar(&flags.failStatus, "fail-status", 0, "answer every request with this status code")

	return cmd
}

// mockServer imitates the ingestion RPC: it checks the service key, accepts
// one event or an array of them, and answers 204.
type mockServer struct {
	logger     catalyst.LoggerAdapter
	serviceKey string
	failStatus int

	mu     sync.Mutex
	events []catalyst.Event
}

func newMockServer(logger catalyst.LoggerAdapter, serviceKey string, failStatus int) *mockServer {
	return &mockServer{
		logger:     logger,
		serviceKey: serviceKey,
		failStatus: failStatus,
	}
}

func (s *mockServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(trackEventPath, s.trackEvent).Methods(http.MethodPost)
	return router
}

// Events returns everything accepted so far.
func (s *mockServer) Events() []catalyst.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalyst.Event(nil), s.events...)
}

func (s *mockServer) trackEvent(w http.ResponseWriter, r *http.Request) {
	if s.serviceKey != "" && r.Header.Get("apikey") != s.serviceKey {
		s.logger.Warn("Rejected request with invalid service key")
		writeError(w, http.StatusUnauthorized, "PGRST301", "Invalid API key")
		return
	}

	if s.failStatus != 0 {
		s.logger.Warn("Failing request on purpose", "status", s.failStatus)
		writeError(w, s.failStatus, "PGRST000", "Simulated failure")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil || !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, "PGRST102", "Invalid JSON")
		return
	}

	var events []catalyst.Event
	if gjson.ParseBytes(body).IsArray() {
		err = json.Unmarshal(body, &events)
	} else {
		var event catalyst.Event
		err = json.Unmarshal(body, &event)
		events = []catalyst.Event{event}
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "Invalid event payload")
		return
	}

	for _, event := range events {
		if event.APIKey == "" || event.CustomerID == "" || event.EventType == "" {
			writeError(w, http.StatusBadRequest, "22023", "p_api_key, p_customer_id and p_event_type are required")
			return
		}
	}

	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()

	for _, event := range events {
		s.logger.Info("Received event",
			"eventType", event.EventType,
			"customer", event.CustomerID,
			"value", event.Value,
			"requestId", r.Header.Get(catalyst.RequestIDHeader),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}
