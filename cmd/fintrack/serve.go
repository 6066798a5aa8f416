package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			cfg := app.Config
			logger := app.Logger

			srv := apphttp.NewServer(":"+cfg.Port, app.Service, apphttp.Options{
				Logger:             logger,
				RateLimitPerMinute: cfg.RateLimitPerMinute,
				AllowedOrigins:     cfg.CORSAllowedOrigins,
				SessionTTL:         cfg.SessionTTL,
				CookieSecure:       cfg.CookieSecure,
			})

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				logger.Info("Starting fintrack server",
					"port", cfg.Port,
					applog.FieldBackend, cfg.DataBackend,
					applog.FieldOperation, applog.OpStartup)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return err
			}
			m := srv.Metrics()
			logger.Info("Server stopped gracefully",
				"total_requests", m.TotalRequests,
				"server_errors", m.ServerErrors)
			return nil
		},
	}
}
