package seatmap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/logger"
)

// SubmitState is the phase of the booking state machine.
type SubmitState int

const (
	StateIdle SubmitState = iota
	StateSubmitting
)

func (s SubmitState) String() string {
	if s == StateSubmitting {
		return "submitting"
	}
	return "idle"
}

// OutcomeKind separates a business rejection from a technical failure.
// Rejected means re-select seats; Failed means retry, after fixing the
// form when the server refused the request as invalid.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeRejected
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of one submission.
type Outcome struct {
	Kind      OutcomeKind
	BookingID string
	Message   string
	Err       error
}

const (
	msgFailed       = "We could not confirm your booking. Please try again."
	msgTimeout      = "The booking request timed out. Seat availability has been refreshed, please check your selection and try again."
	msgTimeoutStale = "The booking request timed out. Seat availability could not be refreshed, please reload the map and check your selection."
	msgRejected     = "Some of the selected seats are no longer available."
	msgUnavailPrefx = "Seats no longer available: "
)

// GuestInfo is the checkout form.
type GuestInfo struct {
	Name            string
	Email           string
	Phone           string
	PaymentProofURL string
}

// Submitter turns a cart into exactly one atomic booking call.
type Submitter struct {
	api      BookingAPI
	catalog  *Catalog
	cart     *Cart
	recovery RecoveryStore
	log      logger.Logger

	minSeats   int
	timeout    time.Duration
	holdWindow time.Duration
	now        func() time.Time

	// OnBooked is called after a successful hold, once the cart is cleared
	// and the booking id persisted.  It drives the payment step.
	OnBooked func(bookingID string)

	mu    sync.Mutex
	state SubmitState
	last  *Outcome
}

// SubmitterOption customises a Submitter.
type SubmitterOption func(*Submitter)

func WithMinSeats(n int) SubmitterOption {
	return func(s *Submitter) {
		if n > 0 {
			s.minSeats = n
		}
	}
}

func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithHoldWindow(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.holdWindow = d
		}
	}
}

func withClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

// NewSubmitter builds a submitter.  recovery may be nil.
func NewSubmitter(api BookingAPI, catalog *Catalog, cart *Cart, recovery RecoveryStore, log logger.Logger, opts ...SubmitterOption) *Submitter {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Submitter{
		api:        api,
		catalog:    catalog,
		cart:       cart,
		recovery:   recovery,
		log:        log,
		minSeats:   DefaultMinSeats,
		timeout:    DefaultSubmitTimeout,
		holdWindow: DefaultHoldWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current phase.
func (s *Submitter) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastOutcome returns the outcome of the previous submission, if any.
func (s *Submitter) LastOutcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

// Submit validates the cart and the guest form, then performs the atomic
// hold.  A non-nil error means a precondition failed and nothing was
// sent; otherwise the Outcome describes the result.
func (s *Submitter) Submit(ctx context.Context, guest GuestInfo) (Outcome, error) {
	guest.Name = strings.TrimSpace(guest.Name)
	guest.Email = strings.TrimSpace(guest.Email)
	guest.Phone = strings.TrimSpace(guest.Phone)
	guest.PaymentProofURL = strings.TrimSpace(guest.PaymentProofURL)

	if s.cart.Len() < s.minSeats {
		return Outcome{}, ErrTooFewSeats
	}
	if guest.Name == "" || guest.Email == "" || guest.Phone == "" {
		return Outcome{}, ErrMissingContact
	}
	if err := s.begin(); err != nil {
		return Outcome{}, err
	}

	out := s.submit(ctx, guest)
	s.finish(out)
	return out, nil
}

func (s *Submitter) submit(ctx context.Context, guest GuestInfo) Outcome {
	ids := s.cart.SeatIDs()

	cats := s.catalog.Categories()
	var gone []string
	var amount int64
	for _, id := range ids {
		seat, ok := s.catalog.Seat(id)
		if !ok || !seat.IsAvailable() {
			gone = append(gone, s.catalog.SeatLabel(id))
			continue
		}
		amount += cats.Price(seat.Category)
	}
	if len(gone) > 0 {
		s.log.Info("submission blocked by stale selection", "venue_id", s.catalog.VenueID(), "seats", gone)
		return Outcome{Kind: OutcomeRejected, Message: msgUnavailPrefx + strings.Join(gone, ", ")}
	}

	req := BookingRequest{
		VenueID: s.catalog.VenueID(),
		SeatIDs: ids,
		Name:    guest.Name,
		Email:   guest.Email,
		Phone:   guest.Phone,
		Amount:  amount,
	}
	if guest.PaymentProofURL != "" {
		u := guest.PaymentProofURL
		req.PaymentProofURL = &u
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	res, err := s.api.AttemptBooking(callCtx, req)
	cancel()

	if err != nil {
		var invalid *InvalidRequestError
		if errors.As(err, &invalid) {
			s.log.Info("booking request refused as invalid", "venue_id", req.VenueID, "message", invalid.Message)
			return Outcome{Kind: OutcomeFailed, Message: invalid.Message, Err: err}
		}
		s.log.Warn("booking call failed", "venue_id", req.VenueID, "seats", len(ids), "error", err)
		refreshed := s.reload(ctx) == nil
		msg := msgFailed
		if errors.Is(err, context.DeadlineExceeded) {
			msg = msgTimeout
			if !refreshed {
				msg = msgTimeoutStale
			}
		}
		return Outcome{Kind: OutcomeFailed, Message: msg, Err: err}
	}

	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = msgRejected
		}
		s.log.Info("booking rejected", "venue_id", req.VenueID, "message", msg)
		s.reload(ctx)
		return Outcome{Kind: OutcomeRejected, Message: msg}
	}

	s.cart.Clear()
	if s.recovery != nil {
		p := PendingBooking{BookingID: res.BookingID, SavedAt: s.now()}
		if err := s.recovery.Save(ctx, p); err != nil {
			s.log.Warn("persist pending booking failed", "booking_id", res.BookingID, "error", err)
		}
	}
	s.log.Info("booking held", "booking_id", res.BookingID, "venue_id", req.VenueID, "seats", len(ids), "amount", req.Amount)
	if s.OnBooked != nil {
		s.OnBooked(res.BookingID)
	}
	return Outcome{Kind: OutcomeSuccess, BookingID: res.BookingID}
}

// Resume returns the booking saved by the last successful submission
// while its hold window is still open.  Stale entries are cleared.
func (s *Submitter) Resume(ctx context.Context) (PendingBooking, bool, error) {
	if s.recovery == nil {
		return PendingBooking{}, false, nil
	}
	p, ok, err := s.recovery.Load(ctx)
	if err != nil || !ok {
		return PendingBooking{}, false, err
	}
	if !p.SavedAt.IsZero() && s.now().Sub(p.SavedAt) > s.holdWindow {
		if err := s.recovery.Clear(ctx); err != nil {
			s.log.Warn("clear stale pending booking failed", "booking_id", p.BookingID, "error", err)
		}
		return PendingBooking{}, false, nil
	}
	return p, true, nil
}

// Forget drops the persisted pending booking once payment is handed off.
func (s *Submitter) Forget(ctx context.Context) error {
	if s.recovery == nil {
		return nil
	}
	return s.recovery.Clear(ctx)
}

func (s *Submitter) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	s.state = StateSubmitting
	return nil
}

func (s *Submitter) finish(out Outcome) {
	s.mu.Lock()
	s.state = StateIdle
	s.last = &out
	s.mu.Unlock()
}

// reload re-fetches the catalog even when ctx is already done, bounded by
// the submit timeout.
func (s *Submitter) reload(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	err := s.catalog.Reload(rctx)
	if err != nil {
		s.log.Warn("catalog reload after submission failed", "error", err)
	}
	return err
}
