// Package cli provides the initialization shared by the fintrack commands:
// environment, logging, configuration and the wired ledger service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

// sessionCleanupInterval is how often expired in-memory sessions are evicted.
const sessionCleanupInterval = 5 * time.Minute

// LoadEnvFile loads the .env file for local development.
// A missing file is ignored as this is optional in production.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// SetupLogger initializes structured logging at level and sets it as the
// default logger.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads the environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles the ledger service with the resources it holds open.
type App struct {
	Config   *config.Config
	Logger   *applog.Logger
	Service  *services.LedgerService
	Notifier *amqp.Client

	closers []func() error
}

// BuildApp wires the configured ledger backend, session store, report
// renderer and optional notifier into a LedgerService. Close releases
// everything BuildApp opened.
func BuildApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, result.Close)

	defaults, err := session.LoadDefaults(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	categories, err := app.categoryStore(ctx, defaults)
	if err != nil {
		return nil, err
	}

	var notifier services.Notifier
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		app.Notifier = client
		app.closers = append(app.closers, client.Close)
		notifier = client
		logger.WithComponent(applog.ComponentAMQP).Info("Ledger notifications enabled",
			"exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
	}

	renderer := report.New(report.Options{Currency: cfg.ReportCurrency, Compress: true})
	app.Service = services.NewLedgerService(result.Store, categories, renderer, notifier)
	ok = true
	return app, nil
}

func (a *App) categoryStore(ctx context.Context, defaults session.Defaults) (session.CategoryStore, error) {
	logger := a.Logger.WithComponent(applog.ComponentSession)
	if a.Config.RedisURL != "" {
		rdb, err := session.NewRedisClient(ctx, a.Config.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		logger.Info("Using Redis session store", "ttl", a.Config.SessionTTL)
		return session.NewRedisStore(rdb, defaults, a.Config.SessionTTL), nil
	}

	store := session.NewMemoryStore(defaults, a.Config.SessionTTL)
	manager := cache.NewManager()
	manager.Register(store.Cache())
	manager.StartCleanup(sessionCleanupInterval)
	a.closers = append(a.closers, func() error {
		manager.Stop()
		return nil
	})
	logger.Info("Using in-memory session store", "ttl", a.Config.SessionTTL)
	return store, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
