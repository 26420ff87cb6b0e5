package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	catalyst "github.com/customercatalyst/catalyst-go"
)

const maxReplayLine = 1 << 20

type replayFlags struct {
	metricsListen string
	timeout       time.Duration
}

type replayRecord struct {
	CustomerID   string            `json:"customerId"`
	CustomerName string            `json:"customerName"`
	EventType    string            `json:"eventType"`
	Value        any               `json:"value"`
	Metadata     catalyst.Metadata `json:"metadata"`
}

type replayStats struct {
	tracked  int
	rejected int
}

func newReplayCmd(root *rootFlags) *cobra.Command {
	var flags replayFlags

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Track every event in a JSON lines file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, closeInput, err := openReplayInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeInput()

			var metrics *catalyst.Metrics
			if flags.metricsListen != "" {
				reg := prometheus.NewRegistry()
				if metrics, err = catalyst.NewMetrics(reg); err != nil {
					return err
				}
				stop, err := serveMetrics(flags.metricsListen, reg)
				if err != nil {
					return err
				}
				defer stop()
			}

			hub, err := root.newHub(metrics)
			if err != nil {
				return err
			}
			client, err := catalyst.NewClient(root.cfg.ClientConfig(hub))
			if err != nil {
				return err
			}

			stats, replayErr := replay(cmd.Context(), client, input)
			shutdownErr := shutdownHub(cmd.Context(), hub, flags.timeout)

			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d events (%d rejected)\n", stats.tracked, stats.rejected)
			return errors.Join(replayErr, shutdownErr)
		},
	}

	cmd.Flags().StringVar(&flags.metricsListen, "metrics-listen", "", "address to serve /metrics on while replaying")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "how long to wait for delivery after the input ends")

	return cmd
}

func openReplayInput(cmd *cobra.Command, name string) (io.Reader, func(), error) {
	if name == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, func() { f.Close() }, nil
}

// replay tracks one event per input line. Malformed lines and events the
// client rejects are counted and skipped.
func replay(ctx context.Context, client *catalyst.Client, input io.Reader) (replayStats, error) {
	var stats replayStats
	logger := client.Hub().Logger()

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), maxReplayLine)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record replayRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			logger.Warn("Skipping malformed line", "line", line, "error", err)
			stats.rejected++
			continue
		}

		if current := client.Identity(); !client.Initialized() || current.CustomerID != record.CustomerID || current.CustomerName != record.CustomerName {
			if err := client.Identify(catalyst.Identity{CustomerID: record.CustomerID, CustomerName: record.CustomerName}); err != nil {
				stats.rejected++
				continue
			}
		}

		if err := client.Track(record.EventType, record.Value, record.Metadata); err != nil {
			logger.Warn("Skipping event", "line", line, "error", err)
			stats.rejected++
			continue
		}
		if client.Stopped() {
			return stats, errors.New("delivery stopped after a fatal error")
		}
		stats.tracked++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read input: %w", err)
	}
	return stats, nil
}

func serveMetrics(listen string, reg *prometheus.Registry) (func(), error) {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	server := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go server.Serve(listener)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}, nil
}
