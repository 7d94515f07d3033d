// Package queue defines the booking event payloads exchanged over RabbitMQ
// and the consumer that records them.
package queue

import (
    "time"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// BookingQueue is the durable queue carrying every booking event.
const BookingQueue = "booking.events"

// EventType names a booking lifecycle step.
type EventType string

const (
    EventCreated          EventType = "created"
    EventPaymentSubmitted EventType = "payment_submitted"
    EventApproved         EventType = "approved"
    EventRejected         EventType = "rejected"
    EventExpired          EventType = "expired"
)

// BookingEvent carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type BookingEvent struct {
    Type       EventType `json:"type"`
    BookingID  string    `json:"booking_id"`
    VenueID    string    `json:"venue_id"`
    Status     string    `json:"status"`
    GuestName  string    `json:"guest_name"`
    Email      string    `json:"email"`
    SeatIDs    []string  `json:"seat_ids"`
    Amount     int64     `json:"amount"`
    Actor      string    `json:"actor,omitempty"`
    OccurredAt string    `json:"occurred_at"`
}

// NewBookingEvent builds an event from the booking state after the change.
func NewBookingEvent(t EventType, b *model.Booking, actor string, at time.Time) BookingEvent {
    return BookingEvent{
        Type:       t,
        BookingID:  b.ID,
        VenueID:    b.VenueID,
        Status:     string(b.Status),
        GuestName:  b.GuestName,
        Email:      b.Email,
        SeatIDs:    append([]string(nil), b.SeatIDs...),
        Amount:     b.Amount,
        Actor:      actor,
        OccurredAt: at.UTC().Format(time.RFC3339),
    }
}
