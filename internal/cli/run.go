package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для просмотра runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect runs",
	}

	cmd.AddCommand(newRunShowCmd(clientFn, outputFn))

	return cmd
}

var runHeaders = []string{"ID", "STATUS", "STARTED", "DURATION_MS", "WEBHOOK", "ERROR"}

func runRow(r RunResponse) []string {
	return []string{
		r.ID,
		r.Status,
		r.StartedAt,
		strconv.FormatInt(r.DurationMs, 10),
		webhookStatus(r.WebhookStatus),
		r.Error,
	}
}

func webhookStatus(status *int) string {
	if status == nil {
		return "-"
	}
	return strconv.Itoa(*status)
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := clientFn().GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outputFn().KeyValue([][2]string{
				{"ID", r.ID},
				{"Schedule", r.ScheduleID},
				{"Status", r.Status},
				{"Started", r.StartedAt},
				{"Finished", orDash(r.FinishedAt)},
				{"Duration (ms)", strconv.FormatInt(r.DurationMs, 10)},
				{"Webhook status", webhookStatus(r.WebhookStatus)},
				{"Summary", orDash(r.Summary)},
				{"Error", orDash(r.Error)},
			}, r)
			return nil
		},
	}
}
