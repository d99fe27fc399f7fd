package datasource

import (
	"errors"
	"fmt"
)

// ErrLocationNotFound is returned by a Geocoder when the lookup has no results
var ErrLocationNotFound = errors.New("location not found")

// StatusError is returned when an upstream API answers with a non-200 status
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error (status %d) from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("API error (status %d) from %s: %s", e.StatusCode, e.URL, e.Body)
}
