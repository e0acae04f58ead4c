package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSweepCmd создаёт команду ручного запуска sweep.
// Токен берётся из глобального --sweep-token (или CADENCE_SWEEP_TOKEN).
func NewSweepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Trigger a sweep: execute every due schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ts time.Time
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q, expected RFC3339", at)
				}
				ts = parsed
			}

			report, err := clientFn().Sweep(cmd.Context(), ts)
			if err != nil {
				return err
			}

			out := outputFn()
			if report.Skipped {
				out.Success("Sweep skipped: another sweep is in progress")
				out.JSONOnly(report)
				return nil
			}

			rows := make([][]string, len(report.Results))
			for i, r := range report.Results {
				status := "ok"
				if !r.Succeeded {
					status = "failed"
				}
				rows[i] = []string{r.ScheduleID, r.Name, status, orDash(r.RunID), r.Error}
			}
			out.Print([]string{"SCHEDULE_ID", "NAME", "RESULT", "RUN_ID", "ERROR"}, rows, report)
			out.Success(fmt.Sprintf("Checked %d, executed %d", report.Checked, report.Executed))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Evaluate due schedules at this RFC3339 instant (default: now)")

	return cmd
}
