package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/septivank/usage-delta-worker/internal/aggregate"
	"github.com/septivank/usage-delta-worker/internal/baseline"
	"github.com/septivank/usage-delta-worker/internal/delta"
	"github.com/septivank/usage-delta-worker/internal/history"
	"github.com/septivank/usage-delta-worker/internal/logging"
	"github.com/septivank/usage-delta-worker/internal/notify"
	"go.uber.org/zap"
)

// Run identifies a single worker invocation.
type Run struct {
	ID   string
	Date string
}

// NewRun creates the identity for this invocation: a fresh run ID and
// today's sample date.
func NewRun() Run {
	return Run{
		ID:   uuid.New().String(),
		Date: history.Today(),
	}
}

// Source produces the per-account usage stream after authenticating
// against the remote API.
type Source interface {
	Open(ctx context.Context) (aggregate.Iterator, error)
}

// Runner executes the per-run pipeline: aggregate current usage, persist
// today's sample, compare against the historical baseline and notify when
// the threshold is crossed.
type Runner struct {
	source     Source
	aggregator *aggregate.Aggregator
	store      history.Store
	detector   *delta.Detector
	notifier   notify.Notifier
	run        Run
	logger     *zap.Logger
}

// NewRunner creates a new runner
func NewRunner(
	source Source,
	aggregator *aggregate.Aggregator,
	store history.Store,
	detector *delta.Detector,
	notifier notify.Notifier,
	run Run,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		source:     source,
		aggregator: aggregator,
		store:      store,
		detector:   detector,
		notifier:   notifier,
		run:        run,
		logger:     logger,
	}
}

// Execute performs one run to completion. The baseline is computed from
// history excluding today's date, then today's sample is appended
// (overwriting on a same-day rerun), so repeated runs never feed the
// current value into its own baseline. On the first-ever run there is no
// baseline; the sample is still recorded and detection is skipped.
//
// The returned result is nil when detection was skipped. Any error is
// fatal to the run and tagged with the stage that failed; the store is
// never mutated after a data source failure.
func (r *Runner) Execute(ctx context.Context) (*delta.Result, error) {
	logger := logging.WithRunID(r.logger, r.run.ID)
	logger.Info("starting usage delta run", zap.String("date", r.run.Date))

	stream, err := r.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("[AUTH] %w", err)
	}

	current, err := r.aggregator.Sum(ctx, stream)
	if err != nil {
		return nil, fmt.Errorf("[FETCH] %w", err)
	}

	window, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("[STORE] %w", err)
	}

	baselineWindow := history.ExcludeDate(window, r.run.Date)
	mean, meanErr := baseline.Mean(baselineWindow)

	sample := history.Sample{Date: r.run.Date, Value: current}
	if _, err := r.store.Append(ctx, sample); err != nil {
		return nil, fmt.Errorf("[STORE] %w", err)
	}
	logger.Info("recorded current sample",
		zap.String("date", sample.Date),
		zap.Int64("value", sample.Value),
	)

	if meanErr != nil {
		if errors.Is(meanErr, baseline.ErrInsufficientHistory) {
			logger.Info("no baseline yet, detection skipped for this run")
			return nil, nil
		}
		return nil, fmt.Errorf("[COMPUTE] %w", meanErr)
	}

	result := r.detector.Evaluate(current, mean, len(baselineWindow))
	logger.Info("evaluated usage delta",
		zap.Int64("current", result.Current),
		zap.Float64("baseline", result.Baseline),
		zap.Float64("percent_delta", result.PercentDelta),
		zap.String("direction", string(result.Direction)),
		zap.Int("sample_count", result.SampleCount),
	)

	if result.Exceeded() {
		severity := notify.SeveritySpike
		if result.Direction == delta.DirectionDrop {
			severity = notify.SeverityDrop
		}
		// Delivery failures never undo the committed history write.
		if err := r.notifier.Notify(ctx, result.Summary(), severity); err != nil {
			logger.Error("failed to deliver notification", zap.Error(err))
		}
	}

	return &result, nil
}
