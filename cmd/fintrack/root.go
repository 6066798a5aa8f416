package main

import (
	"context"
	"errors"
	"runtime"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type appKey struct{}

// appHolder owns the App opened for the running command. execute closes it
// whether or not the command failed.
type appHolder struct {
	app      *cli.App
	released bool
}

func (h *appHolder) Close() error {
	if h.app == nil {
		return nil
	}
	err := h.app.Close()
	h.app = nil
	h.released = true
	return err
}

// execute runs root and releases the App the command opened.
func execute(ctx context.Context, root *cobra.Command, apps *appHolder) error {
	err := root.ExecuteContext(ctx)
	return errors.Join(err, apps.Close())
}

func newRootCmd() (*cobra.Command, *appHolder) {
	var envFile string
	apps := &appHolder{}

	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance ledger backed by a spreadsheet",
		Long: `fintrack records income and expense entries in a single ledger table,
summarizes them, renders monthly PDF reports and exports the ledger as
CSV or Excel. The ledger lives in Google Sheets, SQLite, PostgreSQL or
process memory depending on DATA_BACKEND.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipApp"] == "true" {
				return nil
			}
			if err := cli.LoadEnvFile(envFile); err != nil {
				return err
			}
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg.LogLevel)
			app, err := cli.BuildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			apps.app = app
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")

	root.AddCommand(
		newServeCmd(),
		newTotalsCmd(),
		newAddCmd(),
		newReportCmd(),
		newExportCmd(),
		newImportCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root, apps
}

func appFrom(cmd *cobra.Command) *cli.App {
	app, _ := cmd.Context().Value(appKey{}).(*cli.App)
	return app
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Annotations: map[string]string{"skipApp": "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("fintrack %s (%s)\n", Version, runtime.Version())
		},
	}
}
