package main

import (
	"context"
	"fmt"

	"github.com/septivank/usage-delta-worker/internal/aggregate"
	"github.com/septivank/usage-delta-worker/internal/billing"
	"github.com/septivank/usage-delta-worker/internal/config"
	"github.com/septivank/usage-delta-worker/internal/delta"
	"github.com/septivank/usage-delta-worker/internal/history"
	"github.com/septivank/usage-delta-worker/internal/mq"
	"github.com/septivank/usage-delta-worker/internal/notify"
	"github.com/septivank/usage-delta-worker/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// progressLogEvery controls how often the aggregator logs progress while
// paging through accounts.
const progressLogEvery = 50

// runWorker executes one usage delta run once the app has started, then
// requests shutdown with an exit code reflecting the outcome.
func runWorker(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner *service.Runner,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			go func() {
				if _, err := runner.Execute(context.Background()); err != nil {
					logger.Error("run failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown(fx.ExitCode(0))
			}()
			return nil
		},
	})
}

// ProvideRun creates this invocation's run identity
func ProvideRun() service.Run {
	return service.NewRun()
}

// ProvideBillingClient creates the billing API client
func ProvideBillingClient(cfg *config.Config, logger *zap.Logger) *billing.Client {
	return billing.NewClient(
		cfg.Billing.URL,
		cfg.Billing.AccessKey,
		cfg.Billing.SecretKey,
		cfg.Billing.PageSize,
		logger,
	)
}

// ProvideSource adapts the billing client to the runner's source contract
func ProvideSource(client *billing.Client) service.Source {
	return billing.NewSource(client)
}

// ProvideAggregator creates the usage aggregator
func ProvideAggregator(logger *zap.Logger) *aggregate.Aggregator {
	return aggregate.NewAggregator(logger, progressLogEvery)
}

// ProvideDetector creates the delta detector
func ProvideDetector(cfg *config.Config) *delta.Detector {
	return delta.NewDetector(cfg.Delta.ThresholdPercent)
}

// ProvideStore creates the configured history store backend
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (history.Store, error) {
	switch cfg.History.Backend {
	case config.BackendPostgres:
		pool, err := history.NewPool(lc, logger, cfg.History.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := history.NewPostgresStore(pool, cfg.History.MaxSamples, logger)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return store.EnsureSchema(ctx)
			},
		})
		return store, nil
	case config.BackendFile:
		return history.NewFileStore(cfg.History.Path, cfg.History.MaxSamples, logger), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

// ProvideNotifier creates the configured notification sink
func ProvideNotifier(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	run service.Run,
) (notify.Notifier, error) {
	switch cfg.Notify.Sink {
	case config.NotifierRabbitMQ:
		conn, err := mq.NewConnection(lc, logger, cfg.Notify.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		publisher, err := mq.NewPublisher(conn, cfg.Notify.AlertExchange, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return publisher.Close()
			},
		})
		return notify.NewQueueNotifier(publisher, cfg.Notify.AlertRoutingKey, run.ID, run.Date), nil
	case config.NotifierLog:
		return notify.NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier sink %q", cfg.Notify.Sink)
	}
}

// ProvideRunner creates the run pipeline
func ProvideRunner(
	source service.Source,
	aggregator *aggregate.Aggregator,
	store history.Store,
	detector *delta.Detector,
	notifier notify.Notifier,
	run service.Run,
	logger *zap.Logger,
) *service.Runner {
	return service.NewRunner(source, aggregator, store, detector, notifier, run, logger)
}
