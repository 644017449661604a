// Package history persists the bounded window of daily usage samples that
// the baseline is computed from.
package history

import (
	"context"
	"errors"
)

var (
	// ErrCorrupt indicates the backing record exists but cannot be parsed.
	// Callers must treat this as fatal rather than guessing a baseline
	// from partial data.
	ErrCorrupt = errors.New("history: corrupt store")

	// ErrUnavailable indicates the backing location cannot be read or
	// written.
	ErrUnavailable = errors.New("history: store unavailable")
)

// Store is the historical sample record. Append inserts or overwrites the
// entry for the sample's date, keeps the window sorted ascending with no
// duplicate dates, evicts the oldest entries beyond the configured bound
// and persists atomically, returning the updated window.
type Store interface {
	Load(ctx context.Context) ([]Sample, error)
	Append(ctx context.Context, sample Sample) ([]Sample, error)
}
