package model

import "time"

// SeatStatus is the server-authoritative state of a seat.  Selection by
// the current client is not a status; it is derived from cart membership.
type SeatStatus string

const (
    SeatAvailable       SeatStatus = "available"
    SeatHold            SeatStatus = "hold"
    SeatPendingApproval SeatStatus = "pending_approval"
    SeatBooked          SeatStatus = "booked"
)

// Valid reports whether s is one of the persisted seat statuses.
func (s SeatStatus) Valid() bool {
    switch s {
    case SeatAvailable, SeatHold, SeatPendingApproval, SeatBooked:
        return true
    }
    return false
}

// Seat is a single bookable place.  X and Y are offsets from the owning
// row; Radius is a rendering hint that also feeds zone bounding boxes.
//
// Fields:
//  ID           – stable id, unique across the whole venue
//  VenueID      – owning venue, carried so realtime events can be routed
//  SeatNumber   – label within the row
//  Category     – key into the category table
//  Status       – server status (available, hold, pending_approval, booked)
//  BookingID    – weak back-reference to the booking holding the seat
//  NameOnTicket – optional attendee name printed on the ticket
//  UpdatedAt    – last status change on the server
type Seat struct {
    ID           string     `json:"id"`
    VenueID      string     `json:"venue_id,omitempty"`
    SeatNumber   string     `json:"seat_number"`
    Category     string     `json:"category"`
    Status       SeatStatus `json:"status"`
    X            float64    `json:"x"`
    Y            float64    `json:"y"`
    Radius       float64    `json:"radius"`
    BookingID    *string    `json:"booking_id,omitempty"`
    NameOnTicket *string    `json:"name_on_ticket,omitempty"`
    UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAvailable reports whether the seat can be added to a cart.
func (s *Seat) IsAvailable() bool {
    return s.Status == SeatAvailable
}
