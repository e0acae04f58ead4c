// Cadence CLI — инструмент командной строки для управления
// schedules и просмотра runs через HTTP API.
//
// Использование:
//
//	cadence [--api-url URL] [--sweep-token TOKEN] [--json] <command> [flags]
//
// Команды:
//
//	schedule  Управление schedules
//	run       Просмотр runs
//	calendar  Проекция месяца
//	presets   Каталог пресетов
//	sweep     Ручной запуск sweep
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cadence/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var sweepToken string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "cadence",
		Short:         "Cadence CLI — scheduled agent tasks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("CADENCE_API_URL", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVar(&sweepToken, "sweep-token", os.Getenv("CADENCE_SWEEP_TOKEN"), "Bearer token for sweep")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, sweepToken) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewScheduleCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewCalendarCmd(clientFn, outputFn),
		cli.NewPresetsCmd(clientFn, outputFn),
		cli.NewSweepCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
