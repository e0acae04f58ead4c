package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleShowCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleToggleCmd(clientFn, outputFn, "enable", true),
		newScheduleToggleCmd(clientFn, outputFn, "disable", false),
		newScheduleRunsCmd(clientFn, outputFn),
		newScheduleNextCmd(clientFn, outputFn),
	)

	return cmd
}

var scheduleHeaders = []string{"ID", "NAME", "CRON", "DESCRIPTION", "ENABLED", "NEXT_RUN"}

func scheduleRow(s ScheduleResponse) []string {
	next := s.NextRunAt
	if next == "" {
		next = "-"
	}
	return []string{s.ID, s.Name, s.CronExpr, s.Description, strconv.FormatBool(s.Enabled), next}
}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var owner string
	var enabled bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ListSchedulesOpts{OwnerID: owner, Limit: limit}
			if cmd.Flags().Changed("enabled") {
				opts.Enabled = &enabled
			}

			schedules, err := clientFn().ListSchedules(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				rows[i] = scheduleRow(s)
			}
			outputFn().Print(scheduleHeaders, rows, schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner ID")
	cmd.Flags().BoolVar(&enabled, "enabled", false, "Filter by enabled flag")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateScheduleRequest
	var disabled bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule",
		Example: `  cadence schedule create --owner u1 --name digest --prompt "Summarize inbox" \
    --webhook https://hooks.example.com/x --preset weekly_monday --time 9am`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.CronExpr == "" && req.Preset == "" {
				return fmt.Errorf("one of --cron or --preset is required")
			}
			if disabled {
				off := false
				req.Enabled = &off
			}

			s, err := clientFn().CreateSchedule(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Schedule created: %s", s.ID))
			out.Print(scheduleHeaders, [][]string{scheduleRow(*s)}, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.OwnerID, "owner", "", "Owner ID (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Schedule name (required)")
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "Prompt for the agent (required)")
	cmd.Flags().StringVar(&req.WebhookURL, "webhook", "", "Webhook URL (required)")
	cmd.Flags().StringVar(&req.CronExpr, "cron", "", "5-field cron expression")
	cmd.Flags().StringVar(&req.Preset, "preset", "", "Preset ID (see 'cadence presets')")
	cmd.Flags().StringVar(&req.Time, "time", "", "Time of day for preset, e.g. 9am or 14:30")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create schedule disabled")
	for _, name := range []string{"owner", "name", "prompt", "webhook"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.MarkFlagsMutuallyExclusive("cron", "preset")
	cmd.MarkFlagsMutuallyExclusive("cron", "time")

	return cmd
}

func newScheduleShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := clientFn().GetSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outputFn().KeyValue([][2]string{
				{"ID", s.ID},
				{"Owner", s.OwnerID},
				{"Name", s.Name},
				{"Cron", s.CronExpr},
				{"Description", s.Description},
				{"Webhook", s.WebhookURL},
				{"Enabled", strconv.FormatBool(s.Enabled)},
				{"Last run", orDash(s.LastRunAt)},
				{"Next run", orDash(s.NextRunAt)},
				{"Prompt", s.Prompt},
			}, s)
			return nil
		},
	}
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule and its run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteSchedule(cmd.Context(), args[0]); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Schedule deleted: %s", args[0]))
			return nil
		},
	}
}

func newScheduleToggleCmd(clientFn func() *Client, outputFn func() *Output, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ID",
		Short: fmt.Sprintf("%s a schedule", capitalize(verb)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := clientFn().SetScheduleEnabled(cmd.Context(), args[0], enabled)
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Schedule %sd: %s", verb, s.ID))
			return nil
		},
	}
}

func newScheduleRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs ID",
		Short: "List run history of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListRuns(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = runRow(r)
			}
			outputFn().Print(runHeaders, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newScheduleNextCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "next ID",
		Short: "Show upcoming occurrences of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			occs, err := clientFn().ListOccurrences(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			outputFn().Print(occurrenceHeaders, occurrenceRows(occs), occs)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Window length in days (server default 30)")

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
