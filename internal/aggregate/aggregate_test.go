package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/septivank/usage-delta-worker/internal/aggregate"
	"go.uber.org/zap"
)

type sliceIterator struct {
	values []int64
	pos    int
	err    error
	errAt  int
}

func (it *sliceIterator) Next(_ context.Context) (int64, bool, error) {
	if it.err != nil && it.pos == it.errAt {
		return 0, false, it.err
	}
	if it.pos >= len(it.values) {
		return 0, false, nil
	}
	value := it.values[it.pos]
	it.pos++
	return value, true, nil
}

func TestSum_EmptySequence(t *testing.T) {
	agg := aggregate.NewAggregator(zap.NewNop(), 0)

	total, err := agg.Sum(context.Background(), &sliceIterator{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if total != 0 {
		t.Errorf("Expected 0 for empty sequence, got %d", total)
	}
}

func TestSum_SumsAllValues(t *testing.T) {
	agg := aggregate.NewAggregator(zap.NewNop(), 2)

	total, err := agg.Sum(context.Background(), &sliceIterator{values: []int64{100, 200, 215}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if total != 515 {
		t.Errorf("Expected 515, got %d", total)
	}
}

func TestSum_ZeroValues(t *testing.T) {
	agg := aggregate.NewAggregator(zap.NewNop(), 0)

	total, err := agg.Sum(context.Background(), &sliceIterator{values: []int64{0, 0, 0}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if total != 0 {
		t.Errorf("Expected 0, got %d", total)
	}
}

func TestSum_PropagatesSourceError(t *testing.T) {
	agg := aggregate.NewAggregator(zap.NewNop(), 0)
	sourceErr := errors.New("page fetch failed")

	_, err := agg.Sum(context.Background(), &sliceIterator{values: []int64{1, 2, 3}, err: sourceErr, errAt: 2})
	if !errors.Is(err, sourceErr) {
		t.Errorf("Expected source error to propagate, got %v", err)
	}
}

func TestSum_RejectsNegativeValue(t *testing.T) {
	agg := aggregate.NewAggregator(zap.NewNop(), 0)

	_, err := agg.Sum(context.Background(), &sliceIterator{values: []int64{10, -1}})
	if err == nil {
		t.Error("Expected error for negative usage value")
	}
}
