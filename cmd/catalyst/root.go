package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	catalyst "github.com/customercatalyst/catalyst-go"
	"github.com/customercatalyst/catalyst-go/adapters"
	"github.com/customercatalyst/catalyst-go/config"
)

type rootFlags struct {
	configFile string

	cfg    *config.Config
	logger *adapters.ZapLoggerAdapter
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "catalyst",
		Short: "catalyst - usage event tracking for Customer Catalyst",
		Long:  "catalyst sends usage events to the Customer Catalyst ingestion endpoint",
		Example: `  catalyst track login --customer-id c1 --value 3 --meta plan=pro
  catalyst replay events.jsonl
  catalyst mock-server --listen :3000`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(flags.configFile, config.DefaultEnvPrefix).WithFlags(cmd.Flags()).Load()
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			flags.cfg = cfg
			flags.logger = logger
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logger != nil {
				// stderr cannot always be synced
				_ = flags.logger.Sync()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to a YAML, JSON or TOML config file")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newTrackCmd(&flags))
	cmd.AddCommand(newReplayCmd(&flags))
	cmd.AddCommand(newMockServerCmd(&flags))

	return cmd
}

// Execute runs the CLI with args and the given streams.
func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	rootCmd := newRootCmd()
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	return rootCmd.ExecuteContext(ctx)
}

func (f *rootFlags) newHub(metrics *catalyst.Metrics) (*catalyst.Hub, error) {
	return catalyst.NewHub(f.cfg.HubConfig(f.logger, metrics))
}

// shutdownHub drains hub within timeout even when ctx was cancelled by a
// signal, then reports whether delivery was halted.
func shutdownHub(ctx context.Context, hub *catalyst.Hub, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := hub.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to deliver queued events: %w", err)
	}
	if hub.Stopped() {
		return fmt.Errorf("delivery stopped after a fatal error")
	}
	return nil
}
