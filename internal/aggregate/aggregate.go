// Package aggregate folds a stream of per-account usage counts into the
// single current value the detector compares against the baseline.
package aggregate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Iterator yields per-account usage counts one at a time. The source pages
// through accounts lazily, so the sequence may be arbitrarily long; Next
// returns ok=false when it is exhausted.
type Iterator interface {
	Next(ctx context.Context) (value int64, ok bool, err error)
}

// Aggregator sums a usage stream without materializing it.
type Aggregator struct {
	logger   *zap.Logger
	logEvery int
}

// NewAggregator creates an aggregator that logs progress every logEvery
// accounts (0 disables progress logging).
func NewAggregator(logger *zap.Logger, logEvery int) *Aggregator {
	return &Aggregator{
		logger:   logger,
		logEvery: logEvery,
	}
}

// Sum consumes the iterator and returns the total usage count. An empty
// sequence sums to 0, which is a legitimate signal (e.g. full offboarding),
// not an error. A negative yielded value is a source violation.
func (a *Aggregator) Sum(ctx context.Context, it Iterator) (int64, error) {
	var total int64
	count := 0

	for {
		value, ok, err := it.Next(ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if value < 0 {
			return 0, fmt.Errorf("source yielded negative usage value %d", value)
		}

		total += value
		count++

		if a.logEvery > 0 && count%a.logEvery == 0 {
			a.logger.Debug("aggregation progress",
				zap.Int("accounts", count),
				zap.Int64("running_total", total),
			)
		}
	}

	a.logger.Info("aggregated current usage",
		zap.Int("accounts", count),
		zap.Int64("total", total),
	)

	return total, nil
}
