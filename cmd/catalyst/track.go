package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	catalyst "github.com/customercatalyst/catalyst-go"
)

type trackFlags struct {
	value        float64
	meta         []string
	customerID   string
	customerName string
	timeout      time.Duration
}

func newTrackCmd(root *rootFlags) *cobra.Command {
	var flags trackFlags

	cmd := &cobra.Command{
		Use:   "track <event-type>",
		Short: "Track a single event and wait for delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(flags.meta)
			if err != nil {
				return err
			}

			hub, err := root.newHub(nil)
			if err != nil {
				return err
			}
			client, err := catalyst.NewClient(root.cfg.ClientConfig(hub))
			if err != nil {
				return err
			}
			if err := client.Identify(catalyst.Identity{CustomerID: flags.customerID, CustomerName: flags.customerName}); err != nil {
				return err
			}

			var value any
			if cmd.Flags().Changed("value") {
				value = flags.value
			}
			if err := client.Track(args[0], value, metadata); err != nil {
				return err
			}

			if err := shutdownHub(cmd.Context(), hub, flags.timeout); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tracked %s for %s\n", args[0], flags.customerID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&flags.value, "value", 1, "numeric event value")
	cmd.Flags().StringArrayVar(&flags.meta, "meta", nil, "metadata entry as key=value, repeatable; JSON values are decoded")
	cmd.Flags().StringVar(&flags.customerID, "customer-id", "", "customer the event is attributed to")
	cmd.Flags().StringVar(&flags.customerName, "customer-name", "", "display name of the customer")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "how long to wait for delivery")
	_ = cmd.MarkFlagRequired("customer-id")

	return cmd
}

// parseMetadata turns key=value pairs into metadata. Values that are valid
// JSON keep their type; anything else is a string.
func parseMetadata(pairs []string) (catalyst.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	metadata := make(catalyst.Metadata, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		if gjson.Valid(raw) {
			metadata[key] = gjson.Parse(raw).Value()
		} else {
			metadata[key] = raw
		}
	}
	return metadata, nil
}
