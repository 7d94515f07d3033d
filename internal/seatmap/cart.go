package seatmap

import (
	"sync"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// Cart is the client-local selection of one user.  It is never persisted
// on the server before submission.  Members are not evicted when the
// server status of a seat changes; the next submission re-validates them.
type Cart struct {
	mu    sync.Mutex
	max   int
	seats []*model.Seat
}

// NewCart returns an empty cart holding at most max seats.
func NewCart(max int) *Cart {
	if max <= 0 {
		max = DefaultMaxSeats
	}
	return &Cart{max: max}
}

// Toggle adds an available seat or removes it when already selected.
func (c *Cart) Toggle(seat *model.Seat) error {
	if seat == nil {
		return &SelectionError{Kind: NotAvailable}
	}
	if !seat.IsAvailable() {
		return &SelectionError{Kind: NotAvailable, SeatID: seat.ID}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(seat.ID); i >= 0 {
		c.seats = append(c.seats[:i], c.seats[i+1:]...)
		return nil
	}
	if len(c.seats) >= c.max {
		return &SelectionError{Kind: MaxSeatsExceeded, SeatID: seat.ID, Max: c.max}
	}
	c.seats = append(c.seats, seat)
	return nil
}

// Remove drops a seat from the cart if present.
func (c *Cart) Remove(seatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(seatID); i >= 0 {
		c.seats = append(c.seats[:i], c.seats[i+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.seats = nil
	c.mu.Unlock()
}

// Contains reports whether the seat is selected.  This is the only source
// of the "selected" overlay shown on the map.
func (c *Cart) Contains(seatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.find(seatID) >= 0
}

// Len returns the number of selected seats.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seats)
}

// Max returns the capacity of the cart.
func (c *Cart) Max() int { return c.max }

// Seats returns the selection in insertion order.
func (c *Cart) Seats() []*model.Seat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.Seat(nil), c.seats...)
}

// SeatIDs returns the ids of the selection in insertion order.
func (c *Cart) SeatIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.seats))
	for i, s := range c.seats {
		ids[i] = s.ID
	}
	return ids
}

// Total sums the category price of every member.  Unknown categories
// count as zero.
func (c *Cart) Total(cats model.CategoryTable) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, s := range c.seats {
		total += cats.Price(s.Category)
	}
	return total
}

func (c *Cart) find(id string) int {
	for i, s := range c.seats {
		if s.ID == id {
			return i
		}
	}
	return -1
}
