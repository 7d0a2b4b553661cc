package models

import "fmt"

// ExtractionError means the source code was invalid or the source provider
// unreachable/unparsable. Fatal to the whole conversion.
type ExtractionError struct {
	Provider string
	Code     string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: failed to extract booking code %q: %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: failed to extract booking code %q", e.Provider, e.Code)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// BookingError means the target provider rejected the final booking payload.
// Message carries the provider's own error text where available.
type BookingError struct {
	Provider string
	Message  string
	Err      error
}

func (e *BookingError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: booking rejected: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: booking failed: %v", e.Provider, e.Err)
}

func (e *BookingError) Unwrap() error { return e.Err }

// TotalConversionFailure is the derived condition of zero valid selections
// after translation. It enumerates every failed selection with its reason;
// the cause is almost always data, not a system fault.
type TotalConversionFailure struct {
	Target   string
	Failures []FailedSelection
}

func (e *TotalConversionFailure) Error() string {
	return fmt.Sprintf("no selections could be converted to %s (%d failed)", e.Target, len(e.Failures))
}
