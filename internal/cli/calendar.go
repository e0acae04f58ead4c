package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var occurrenceHeaders = []string{"AT", "SCHEDULE_ID", "NAME", "DESCRIPTION"}

func occurrenceRows(occs []OccurrenceResponse) [][]string {
	rows := make([][]string, len(occs))
	for i, o := range occs {
		rows[i] = []string{o.At, o.ScheduleID, o.Name, o.Description}
	}
	return rows
}

// NewCalendarCmd создаёт команду проекции месяца.
func NewCalendarCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var owner string
	var month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show all occurrences of an owner's schedules in a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != "" {
				if _, err := time.Parse("2006-01", month); err != nil {
					return fmt.Errorf("invalid --month %q, expected YYYY-MM", month)
				}
			}

			cal, err := clientFn().Calendar(cmd.Context(), owner, month)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(occurrenceHeaders, occurrenceRows(cal.Occurrences), cal)
			out.Success(fmt.Sprintf("%s (%s): %d occurrences", cal.Month, cal.Timezone, len(cal.Occurrences)))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID (required)")
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

// NewPresetsCmd создаёт команду вывода каталога пресетов.
func NewPresetsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List schedule presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := clientFn().Presets(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(presets))
			for i, p := range presets {
				rows[i] = []string{p.ID, p.Template, p.Label}
			}
			outputFn().Print([]string{"ID", "TEMPLATE", "LABEL"}, rows, presets)
			return nil
		},
	}
}
