package model

import (
    "fmt"
    "strconv"
    "time"
)

// Duration is a booking length in minutes.  Only values from a
// configured option set are bookable.
type Duration int

const (
    Duration60  Duration = 60
    Duration120 Duration = 120
    Duration240 Duration = 240
    Duration480 Duration = 480
)

// DefaultDurationOptions is the stock option set.
func DefaultDurationOptions() []Duration {
    return []Duration{Duration60, Duration120, Duration240, Duration480}
}

// Minutes converts d into a time.Duration.
func (d Duration) Minutes() time.Duration { return time.Duration(d) * time.Minute }

// Hours returns the whole number of hours in d.
func (d Duration) Hours() int { return int(d) / 60 }

// In reports whether d is one of options.
func (d Duration) In(options []Duration) bool {
    for _, o := range options {
        if o == d {
            return true
        }
    }
    return false
}

// ParseDuration parses a minute count and checks it against options.
func ParseDuration(raw string, options []Duration) (Duration, error) {
    n, err := strconv.Atoi(raw)
    if err != nil {
        return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
    }
    d := Duration(n)
    if !d.In(options) {
        return 0, fmt.Errorf("duration %d is not an offered option", n)
    }
    return d, nil
}
