package baseline_test

import (
	"errors"
	"testing"

	"github.com/septivank/usage-delta-worker/internal/baseline"
	"github.com/septivank/usage-delta-worker/internal/history"
)

func TestMean_MultipleSamples(t *testing.T) {
	window := []history.Sample{
		{Date: "2026-08-27", Value: 50},
		{Date: "2026-08-28", Value: 54},
		{Date: "2026-08-29", Value: 52},
	}

	mean, err := baseline.Mean(window)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if mean != 52 {
		t.Errorf("Expected mean 52, got %f", mean)
	}
}

func TestMean_FloatDivision(t *testing.T) {
	window := []history.Sample{
		{Date: "2026-08-28", Value: 1},
		{Date: "2026-08-29", Value: 2},
	}

	mean, err := baseline.Mean(window)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if mean != 1.5 {
		t.Errorf("Expected mean 1.5, got %f", mean)
	}
}

func TestMean_SingleSample(t *testing.T) {
	window := []history.Sample{{Date: "2026-08-29", Value: 515}}

	mean, err := baseline.Mean(window)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if mean != 515 {
		t.Errorf("Expected mean to equal the single sample value 515, got %f", mean)
	}
}

func TestMean_EmptyWindow(t *testing.T) {
	_, err := baseline.Mean(nil)

	if !errors.Is(err, baseline.ErrInsufficientHistory) {
		t.Errorf("Expected ErrInsufficientHistory, got %v", err)
	}
}
