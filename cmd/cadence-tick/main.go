// Cadence tick — одноразовый триггер sweep для внешнего планировщика
// (системный cron, Kubernetes CronJob): публикует sweep.requested и выходит.
//
// Использование:
//
//	cadence-tick [--at RFC3339] [--source NAME]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cadence/internal/config"
	"github.com/shaiso/Cadence/internal/mq"
	"github.com/shaiso/Cadence/internal/telemetry"
)

func main() {
	var at string
	var source string
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "cadence-tick",
		Short:         "Request a sweep via RabbitMQ",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := mq.SweepRequestedPayload{Source: source}
			if at != "" {
				ts, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q, expected RFC3339", at)
				}
				payload.At = ts.UTC()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			conn, err := mq.NewConnection(mq.ConnectionConfig{URL: cfg.RabbitMQ.URL, Logger: logger})
			if err != nil {
				return fmt.Errorf("connect to rabbitmq: %w", err)
			}
			defer conn.Close()

			if err := mq.SetupTopology(ctx, conn); err != nil {
				return err
			}
			if err := mq.NewPublisher(conn, logger).PublishSweepRequested(ctx, payload); err != nil {
				return err
			}

			logger.Info("sweep requested", "source", source, "at", payload.At)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&at, "at", "", "Evaluate due schedules at this RFC3339 instant (default: consumer's now)")
	rootCmd.Flags().StringVar(&source, "source", "tick", "Trigger source recorded in sweep logs")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Publish timeout")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
