// Package delta classifies the current usage value against the historical
// baseline.
package delta

import (
	"fmt"
)

// Direction is the classification of the current value relative to the
// baseline.
type Direction string

const (
	DirectionSpike Direction = "spike"
	DirectionDrop  Direction = "drop"
	DirectionNone  Direction = "none"
)

// Result is the outcome of a single evaluation. It is computed fresh each
// run and never persisted.
type Result struct {
	Current          int64     `json:"current"`
	Baseline         float64   `json:"baseline"`
	Direction        Direction `json:"direction"`
	PercentDelta     float64   `json:"percent_delta"`
	Unbounded        bool      `json:"unbounded"`
	SampleCount      int       `json:"sample_count"`
	ThresholdPercent float64   `json:"threshold_percent"`
}

// Exceeded reports whether the threshold was crossed.
func (r Result) Exceeded() bool {
	return r.Direction != DirectionNone
}

// Summary renders the result as a notification message.
func (r Result) Summary() string {
	switch r.Direction {
	case DirectionSpike:
		if r.Unbounded {
			return fmt.Sprintf("usage spike: current count %d against a zero baseline (%d samples)",
				r.Current, r.SampleCount)
		}
		return fmt.Sprintf("usage spike: current count %d is %.1f%% above the %.1f average of the last %d samples (threshold %.1f%%)",
			r.Current, r.PercentDelta, r.Baseline, r.SampleCount, r.ThresholdPercent)
	case DirectionDrop:
		return fmt.Sprintf("usage drop: current count %d is %.1f%% below the %.1f average of the last %d samples (threshold %.1f%%)",
			r.Current, -r.PercentDelta, r.Baseline, r.SampleCount, r.ThresholdPercent)
	default:
		return fmt.Sprintf("usage steady: current count %d is within %.1f%% of the %.1f average of the last %d samples",
			r.Current, r.ThresholdPercent, r.Baseline, r.SampleCount)
	}
}

// Detector evaluates current usage against a baseline with a configured
// percentage threshold.
type Detector struct {
	thresholdPercent float64
}

// NewDetector creates a detector with the specified threshold.
func NewDetector(thresholdPercent float64) *Detector {
	return &Detector{thresholdPercent: thresholdPercent}
}

// Evaluate compares current against baseline. The comparison is strict: a
// delta exactly equal to the threshold does not classify as spike or drop.
// A zero baseline with a positive current is an unconditional spike; the
// percent delta is undefined there and reported as unbounded rather than
// computed by dividing by zero. Pure function of its inputs, no state
// across calls.
func (d *Detector) Evaluate(current int64, baseline float64, sampleCount int) Result {
	result := Result{
		Current:          current,
		Baseline:         baseline,
		Direction:        DirectionNone,
		SampleCount:      sampleCount,
		ThresholdPercent: d.thresholdPercent,
	}

	if baseline == 0 {
		if current > 0 {
			result.Direction = DirectionSpike
			result.Unbounded = true
		}
		return result
	}

	result.PercentDelta = (float64(current) - baseline) / baseline * 100

	switch {
	case float64(current) > baseline*(1+d.thresholdPercent/100):
		result.Direction = DirectionSpike
	case float64(current) < baseline*(1-d.thresholdPercent/100):
		result.Direction = DirectionDrop
	}

	return result
}
