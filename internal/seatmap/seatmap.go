// Package seatmap is the client-side seat inventory and booking core.  It
// keeps a patched in-memory snapshot of a venue (Catalog), applies pushed
// seat changes to it (Reconciler), tracks the seats a single user intends
// to book (Cart), turns a cart into one atomic booking call (Submitter) and
// computes pan/zoom geometry for rendering (FitToViewport, FocusOnZone).
//
// The server is the only authority on seat status.  Everything held here
// is advisory until a submission is re-validated by the atomic hold call.
package seatmap

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

const (
	// DefaultMaxSeats caps the number of seats in one cart.
	DefaultMaxSeats = 10
	// DefaultMinSeats is the smallest cart that may be submitted.
	DefaultMinSeats = 1
	// DefaultSubmitTimeout bounds a single booking call.
	DefaultSubmitTimeout = 15 * time.Second
	// DefaultHoldWindow is how long the server keeps a hold before release.
	DefaultHoldWindow = 60 * time.Minute
)

// ErrVenueNotFound is returned by a VenueSource when the venue does not exist.
var ErrVenueNotFound = errors.New("venue not found")

// VenueData is the payload of a venue fetch: geometry, seat states and the
// category table as stored on the server.
type VenueData struct {
	Venue      *model.Venue     `json:"venue"`
	Categories []model.Category `json:"categories"`
}

// VenueSource reads venue layouts and the admin-controlled category filter.
type VenueSource interface {
	FetchVenue(ctx context.Context, venueID string) (*VenueData, error)
	VisibleCategories(ctx context.Context) ([]model.Category, error)
}

// Subscription is a live realtime feed registration.
type Subscription interface {
	Close() error
}

// Feed delivers full seat records whenever a seat changes on the server.
// Delivery is at-least-once and unordered; fn may be called from another
// goroutine.
type Feed interface {
	Subscribe(ctx context.Context, venueID string, fn func(model.Seat)) (Subscription, error)
}

// BookingRequest is the body of the atomic hold call.
type BookingRequest struct {
	VenueID         string   `json:"venue_id"`
	SeatIDs         []string `json:"seat_ids"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Amount          int64    `json:"amount"`
	PaymentProofURL *string  `json:"payment_proof_url,omitempty"`
}

// BookingResult is the server verdict.  Success false carries a
// human-readable Message and guarantees no seat was mutated.
type BookingResult struct {
	Success   bool   `json:"success"`
	BookingID string `json:"booking_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// BookingAPI performs the all-or-nothing seat hold.
type BookingAPI interface {
	AttemptBooking(ctx context.Context, req BookingRequest) (BookingResult, error)
}

// Backend bundles every collaborator the core depends on.
type Backend interface {
	VenueSource
	Feed
	BookingAPI
}
