package history

import (
	"fmt"
	"sort"
	"time"
)

// DateFormat is the day-granularity key format for samples.
const DateFormat = "2006-01-02"

// Sample is one day's aggregated usage count.
type Sample struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// Validate checks that the sample has a well-formed date and a
// non-negative value.
func (s Sample) Validate() error {
	if _, err := time.Parse(DateFormat, s.Date); err != nil {
		return fmt.Errorf("invalid sample date %q: %w", s.Date, err)
	}
	if s.Value < 0 {
		return fmt.Errorf("negative sample value %d for date %s", s.Value, s.Date)
	}
	return nil
}

// Today returns the sample date key for the current day in UTC.
func Today() string {
	return time.Now().UTC().Format(DateFormat)
}

// normalize deduplicates by date (later entries win), sorts ascending by
// date and evicts the oldest entries beyond maxSamples. ISO dates sort
// correctly as strings.
func normalize(samples []Sample, maxSamples int) []Sample {
	byDate := make(map[string]int64, len(samples))
	for _, s := range samples {
		byDate[s.Date] = s.Value
	}

	out := make([]Sample, 0, len(byDate))
	for date, value := range byDate {
		out = append(out, Sample{Date: date, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if maxSamples > 0 && len(out) > maxSamples {
		out = out[len(out)-maxSamples:]
	}
	return out
}

// ExcludeDate returns the window without the sample for the given date,
// if present. Used to keep today's just-computed value out of its own
// baseline.
func ExcludeDate(samples []Sample, date string) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Date != date {
			out = append(out, s)
		}
	}
	return out
}
