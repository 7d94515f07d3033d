package seatmap

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies catalog load failures.
type LoadErrorKind int

const (
	LoadNetwork LoadErrorKind = iota
	LoadNotFound
	LoadInvalid
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadNotFound:
		return "not_found"
	case LoadInvalid:
		return "invalid"
	default:
		return "network"
	}
}

// LoadError is returned by Catalog.Load and Catalog.Reload.
type LoadError struct {
	Kind    LoadErrorKind
	VenueID string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load venue %s: %s", e.VenueID, e.Kind)
	}
	return fmt.Sprintf("load venue %s: %s: %v", e.VenueID, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SelectionErrorKind classifies rejected cart toggles.
type SelectionErrorKind int

const (
	NotAvailable SelectionErrorKind = iota + 1
	MaxSeatsExceeded
)

// SelectionError is returned by Cart.Toggle.  It matches ErrNotAvailable
// and ErrMaxSeatsExceeded through errors.Is.
type SelectionError struct {
	Kind   SelectionErrorKind
	SeatID string
	Max    int
}

var (
	ErrNotAvailable     = &SelectionError{Kind: NotAvailable}
	ErrMaxSeatsExceeded = &SelectionError{Kind: MaxSeatsExceeded}
)

func (e *SelectionError) Error() string {
	switch e.Kind {
	case NotAvailable:
		if e.SeatID == "" {
			return "seat not available"
		}
		return fmt.Sprintf("seat %s not available", e.SeatID)
	case MaxSeatsExceeded:
		if e.Max > 0 {
			return fmt.Sprintf("max %d seats per booking", e.Max)
		}
		return "max seats per booking reached"
	}
	return "invalid selection"
}

// Is matches on Kind so callers can compare against the exported sentinels.
func (e *SelectionError) Is(target error) bool {
	var t *SelectionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Submission precondition errors.  None of them involve a network call.
var (
	ErrTooFewSeats      = errors.New("not enough seats selected")
	ErrMissingContact   = errors.New("name, email and phone are required")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

// InvalidRequestError is returned by a BookingAPI when the server refuses
// the request body itself.  No seat was touched; Message is the server's
// explanation.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return "invalid booking request: " + e.Message }
