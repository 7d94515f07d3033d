package model

import "time"

// BookingStatus tracks a booking from seat hold to admin review.
type BookingStatus string

const (
    BookingHold            BookingStatus = "hold"
    BookingPendingApproval BookingStatus = "pending_approval"
    BookingApproved        BookingStatus = "approved"
    BookingRejected        BookingStatus = "rejected"
    BookingExpired         BookingStatus = "expired"
)

// Booking is created atomically from a cart snapshot.  While Status is
// hold the seats it captured are held until HoldExpiresAt, after which the
// hold sweeper releases them.
//
// Fields:
//  ID              – uuid assigned at creation
//  VenueID         – venue of every captured seat
//  GuestName       – contact name given at checkout
//  Email, Phone    – contact details
//  Amount          – server-computed total of seat category prices
//  PaymentProofURL – uploaded proof of payment (nil until submitted)
//  SeatIDs         – seats captured by the booking
type Booking struct {
    ID              string        `json:"id"`
    VenueID         string        `json:"venue_id"`
    GuestName       string        `json:"guest_name"`
    Email           string        `json:"email"`
    Phone           string        `json:"phone"`
    Amount          int64         `json:"amount"`
    PaymentProofURL *string       `json:"payment_proof_url,omitempty"`
    Status          BookingStatus `json:"status"`
    SeatIDs         []string      `json:"seat_ids"`
    HoldExpiresAt   time.Time     `json:"hold_expires_at"`
    CreatedAt       time.Time     `json:"created_at"`
    UpdatedAt       time.Time     `json:"updated_at"`
}
