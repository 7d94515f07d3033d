// Package service implements the booking use cases on top of the
// repositories and fans every committed change out to realtime clients and
// the booking event queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/seatmap"
)

// BookingStore is the transactional storage of bookings and seat states.
type BookingStore interface {
	AttemptTx(ctx context.Context, p repository.AttemptParams) (*repository.AttemptResult, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	AttachPaymentProof(ctx context.Context, id, proofURL string) (*model.Booking, []model.Seat, error)
	Approve(ctx context.Context, id, reviewer string) (*model.Booking, []model.Seat, error)
	Reject(ctx context.Context, id, reviewer string) (*model.Booking, []model.Seat, error)
	ReleaseExpired(ctx context.Context, limit int) ([]repository.Release, error)
}

// SeatPublisher pushes changed seats to realtime subscribers.
type SeatPublisher interface {
	PublishSeats(ctx context.Context, venueID string, seats []model.Seat) error
}

// EventPublisher emits booking lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// ValidationError describes a malformed booking request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

const notifyTimeout = 5 * time.Second

// BookingService runs booking transitions and their side effects.
type BookingService struct {
	store  BookingStore
	seats  SeatPublisher
	events EventPublisher
	cfg    config.BookingConfig
	log    logger.Logger
	now    func() time.Time
}

// NewBookingService wires the service.  seats and events may be nil, in
// which case the corresponding notifications are skipped.
func NewBookingService(store BookingStore, seats SeatPublisher, events EventPublisher, cfg config.BookingConfig, log logger.Logger) *BookingService {
	return &BookingService{store: store, seats: seats, events: events, cfg: cfg, log: log, now: time.Now}
}

// Attempt validates the request and performs the atomic hold.  A seat
// conflict is not an error: it yields Success false with a message naming
// the seats.
func (s *BookingService) Attempt(ctx context.Context, req seatmap.BookingRequest) (seatmap.BookingResult, error) {
	p, err := s.validate(req)
	if err != nil {
		return seatmap.BookingResult{}, err
	}

	res, err := s.store.AttemptTx(ctx, p)
	if err != nil {
		s.log.Error("atomic hold failed", "venue_id", p.VenueID, "seats", len(p.SeatIDs), "error", err)
		return seatmap.BookingResult{}, fmt.Errorf("attempt booking: %w", err)
	}
	s.notifyReleases(ctx, res.Released)

	if res.Booking == nil {
		s.log.Info("booking rejected", "venue_id", p.VenueID, "seat_ids", p.SeatIDs, "reason", res.Rejected)
		return seatmap.BookingResult{Success: false, Message: res.Rejected}, nil
	}

	b := res.Booking
	if req.Amount != b.Amount {
		s.log.Warn("client amount differs from server total", "booking_id", b.ID, "client", req.Amount, "server", b.Amount)
	}
	s.log.Info("booking held", "booking_id", b.ID, "venue_id", b.VenueID, "seats", len(b.SeatIDs), "expires_at", b.HoldExpiresAt)
	s.notify(ctx, b.VenueID, res.Held, queue.NewBookingEvent(queue.EventCreated, b, "", s.now()))
	return seatmap.BookingResult{Success: true, BookingID: b.ID}, nil
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	return s.store.Get(ctx, id)
}

// SubmitPaymentProof attaches a proof URL to a live hold.
func (s *BookingService) SubmitPaymentProof(ctx context.Context, id, proofURL string) (*model.Booking, error) {
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, &ValidationError{Field: "payment_proof_url", Message: "is required"}
	}
	b, seats, err := s.store.AttachPaymentProof(ctx, id, proofURL)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, b.VenueID, seats, queue.NewBookingEvent(queue.EventPaymentSubmitted, b, "", s.now()))
	return b, nil
}

// Approve books the seats of a pending booking.
func (s *BookingService) Approve(ctx context.Context, id, reviewer string) (*model.Booking, error) {
	b, seats, err := s.store.Approve(ctx, id, reviewer)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking approved", "booking_id", id, "by", reviewer)
	s.notify(ctx, b.VenueID, seats, queue.NewBookingEvent(queue.EventApproved, b, reviewer, s.now()))
	return b, nil
}

// Reject releases the seats of a held or pending booking.
func (s *BookingService) Reject(ctx context.Context, id, reviewer string) (*model.Booking, error) {
	b, seats, err := s.store.Reject(ctx, id, reviewer)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking rejected by reviewer", "booking_id", id, "by", reviewer)
	s.notify(ctx, b.VenueID, seats, queue.NewBookingEvent(queue.EventRejected, b, reviewer, s.now()))
	return b, nil
}

// SweepExpired releases one batch of expired holds and returns how many
// bookings were expired.
func (s *BookingService) SweepExpired(ctx context.Context) (int, error) {
	released, err := s.store.ReleaseExpired(ctx, s.cfg.SweepBatch)
	if err != nil {
		return 0, err
	}
	s.notifyReleases(ctx, released)
	return len(released), nil
}

func (s *BookingService) validate(req seatmap.BookingRequest) (repository.AttemptParams, error) {
	p := repository.AttemptParams{
		VenueID:   strings.TrimSpace(req.VenueID),
		GuestName: strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		HoldTTL:   s.cfg.HoldTTL,
	}
	if p.VenueID == "" {
		return p, &ValidationError{Field: "venue_id", Message: "is required"}
	}
	if p.GuestName == "" || p.Email == "" || p.Phone == "" {
		return p, &ValidationError{Field: "contact", Message: "name, email and phone are required"}
	}

	seen := make(map[string]bool, len(req.SeatIDs))
	for _, id := range req.SeatIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p.SeatIDs = append(p.SeatIDs, id)
	}
	if len(p.SeatIDs) < s.cfg.MinSeats {
		return p, &ValidationError{Field: "seat_ids", Message: fmt.Sprintf("at least %d seat(s) required", s.cfg.MinSeats)}
	}
	if len(p.SeatIDs) > s.cfg.MaxSeats {
		return p, &ValidationError{Field: "seat_ids", Message: fmt.Sprintf("at most %d seats per booking", s.cfg.MaxSeats)}
	}
	if req.PaymentProofURL != nil {
		if u := strings.TrimSpace(*req.PaymentProofURL); u != "" {
			p.PaymentProofURL = &u
		}
	}
	return p, nil
}

func (s *BookingService) notifyReleases(ctx context.Context, released []repository.Release) {
	for i := range released {
		r := released[i]
		s.log.Info("hold expired", "booking_id", r.Booking.ID, "venue_id", r.Booking.VenueID, "seats", len(r.Seats))
		s.notify(ctx, r.Booking.VenueID, r.Seats, queue.NewBookingEvent(queue.EventExpired, &r.Booking, "", s.now()))
	}
}

// notify publishes seat changes and the booking event concurrently.  The
// transition is already committed, so failures are only logged.
func (s *BookingService) notify(ctx context.Context, venueID string, seats []model.Seat, ev queue.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var g errgroup.Group
	if s.seats != nil && len(seats) > 0 {
		g.Go(func() error { return s.seats.PublishSeats(ctx, venueID, seats) })
	}
	if s.events != nil {
		g.Go(func() error { return s.events.Publish(ctx, ev) })
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("notification failed", "booking_id", ev.BookingID, "event", string(ev.Type), "error", err)
	}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
