package lookup

import (
	"context"
	"errors"

	"classy-weather/datasource"
)

// Outcome is how a query chain settled
type Outcome string

const (
	OutcomeCommitted        Outcome = "committed"
	OutcomeLocationNotFound Outcome = "location_not_found"
	// OutcomeFailure covers any network or decoding error from either request
	OutcomeFailure    Outcome = "failure"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeSuperseded Outcome = "superseded"
)

// classify maps a chain's error to its outcome, ignoring supersession
func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	case errors.Is(err, datasource.ErrLocationNotFound):
		return OutcomeLocationNotFound
	default:
		return OutcomeFailure
	}
}
