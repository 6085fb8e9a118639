package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for CPI lookups.
var (
	// ErrInvalidInput is returned when the month is not a calendar month name or
	// the year is outside (MinYear, current year].
	ErrInvalidInput = errors.New("month or year out of range")

	// ErrUpstreamUnavailable is returned for transport failures and non-success
	// statuses from the BLS API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse is returned when a BLS body lacks required fields.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// UpstreamError describes a failed upstream call. StatusCode is zero when the
// request never produced a response.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", ErrUpstreamUnavailable, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrUpstreamUnavailable, e.Err)
	}
	return ErrUpstreamUnavailable.Error()
}

// Unwrap returns the transport error, if any.
func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes every UpstreamError match ErrUpstreamUnavailable.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }
