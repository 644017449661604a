// Package baseline computes the historical mean that current usage is
// compared against.
package baseline

import (
	"errors"

	"github.com/septivank/usage-delta-worker/internal/history"
)

// ErrInsufficientHistory indicates there are no samples to compute a mean
// from. Callers skip detection for the run but still record the current
// sample.
var ErrInsufficientHistory = errors.New("baseline: insufficient history")

// Mean returns the arithmetic mean of the window's values using float
// division. A single-sample window yields that sample's value.
func Mean(window []history.Sample) (float64, error) {
	if len(window) == 0 {
		return 0, ErrInsufficientHistory
	}

	var sum int64
	for _, s := range window {
		sum += s.Value
	}
	return float64(sum) / float64(len(window)), nil
}
