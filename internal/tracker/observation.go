package tracker

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedObservation marks an observation missing required fields
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrOutOfOrder marks an observation older than the last processed one.
	// Timestamps are contractually monotonically non-decreasing; the core
	// rejects violations instead of reordering.
	ErrOutOfOrder = errors.New("observation out of order")
)

// Observation is a single raw sample of the user's foreground activity,
// produced by the external capture source.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	App       string    `json:"app"`
	Title     string    `json:"title"`
	Site      string    `json:"site,omitempty"`
}

// Validate checks the required fields
func (o Observation) Validate() error {
	if o.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedObservation)
	}
	if o.App == "" {
		return fmt.Errorf("%w: missing app name", ErrMalformedObservation)
	}
	return nil
}
