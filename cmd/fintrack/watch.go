package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow ledger change notifications published on AMQP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			if app.Notifier == nil {
				return errors.New("watch needs AMQP_URL to be set")
			}
			ctx := cmd.Context()
			w := worker.NewLedgerWatcher(app.Service, app.Logger)
			if err := w.StartupCheck(ctx); err != nil {
				app.Logger.Warn("Startup check failed", applog.FieldError, err)
			}

			err := app.Notifier.ConsumeLedgerSaved(ctx, func(msg *amqp.LedgerSavedMessage) error {
				return w.HandleLedgerSaved(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				if n := w.Drift(); n > 0 {
					app.Logger.Warn("Notifications disagreed with the stored ledger", "count", n)
				}
				return nil
			}
			return err
		},
	}
}
