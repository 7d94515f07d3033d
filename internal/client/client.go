// Package client talks to the booking API over HTTP.  HTTPBackend
// satisfies seatmap.Backend so the selection core can run against a real
// server.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/seatmap"
)

// StatusError is returned for non-2xx responses the caller must handle.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// HTTPBackend implements seatmap.Backend plus the payment and admin calls.
type HTTPBackend struct {
	base   string
	hc     *http.Client
	stream *http.Client
	token  string
	log    logger.Logger
}

// Option configures an HTTPBackend.
type Option func(*HTTPBackend)

// WithToken sets the bearer token sent on admin calls.
func WithToken(token string) Option { return func(b *HTTPBackend) { b.token = token } }

// WithHTTPClient replaces the client used for request/response calls.
func WithHTTPClient(hc *http.Client) Option { return func(b *HTTPBackend) { b.hc = hc } }

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option { return func(b *HTTPBackend) { b.log = log } }

// New returns a backend for the API rooted at baseURL.  Request/response
// calls time out after 30s; the seat stream has no timeout.
func New(baseURL string, opts ...Option) *HTTPBackend {
	b := &HTTPBackend{
		base:   strings.TrimRight(baseURL, "/"),
		hc:     &http.Client{Timeout: 30 * time.Second},
		stream: &http.Client{},
		log:    logger.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

var _ seatmap.Backend = (*HTTPBackend)(nil)

// FetchVenue loads the venue layout.  A 404 maps to seatmap.ErrVenueNotFound.
func (b *HTTPBackend) FetchVenue(ctx context.Context, venueID string) (*seatmap.VenueData, error) {
	var out seatmap.VenueData
	err := b.do(ctx, http.MethodGet, "/v1/venues/"+url.PathEscape(venueID), nil, false, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, seatmap.ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VisibleCategories returns the categories an admin has left visible.
func (b *HTTPBackend) VisibleCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := b.do(ctx, http.MethodGet, "/v1/categories", nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AttemptBooking posts the atomic hold.  A 409 answer means seats were
// taken and comes back as Success false with the server's message.  A 400
// is a *seatmap.InvalidRequestError; anything else that is not a 201 is
// an error.
func (b *HTTPBackend) AttemptBooking(ctx context.Context, req seatmap.BookingRequest) (seatmap.BookingResult, error) {
	var out seatmap.BookingResult
	err := b.do(ctx, http.MethodPost, "/v1/bookings", req, false, &out)
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusConflict:
			return seatmap.BookingResult{Success: false, Message: se.Message}, nil
		case http.StatusBadRequest:
			return seatmap.BookingResult{}, &seatmap.InvalidRequestError{Message: se.Message}
		}
	}
	if err != nil {
		return seatmap.BookingResult{}, err
	}
	return out, nil
}

// Booking returns the current state of a booking.
func (b *HTTPBackend) Booking(ctx context.Context, id string) (*model.Booking, error) {
	var out model.Booking
	if err := b.do(ctx, http.MethodGet, "/v1/bookings/"+url.PathEscape(id), nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitPaymentProof moves a held booking to pending approval.
func (b *HTTPBackend) SubmitPaymentProof(ctx context.Context, id, proofURL string) (*model.Booking, error) {
	var out model.Booking
	body := map[string]string{"payment_proof_url": proofURL}
	if err := b.do(ctx, http.MethodPost, "/v1/bookings/"+url.PathEscape(id)+"/payment-proof", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Approve books the seats of a pending booking.  Requires an admin token.
func (b *HTTPBackend) Approve(ctx context.Context, id string) (*model.Booking, error) {
	return b.review(ctx, id, "approve")
}

// Reject releases the seats of a booking.  Requires an admin token.
func (b *HTTPBackend) Reject(ctx context.Context, id string) (*model.Booking, error) {
	return b.review(ctx, id, "reject")
}

func (b *HTTPBackend) review(ctx context.Context, id, action string) (*model.Booking, error) {
	var out model.Booking
	if err := b.do(ctx, http.MethodPost, "/v1/admin/bookings/"+url.PathEscape(id)+"/"+action, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetCategoryVisibility shows or hides a category.  Requires an admin token.
func (b *HTTPBackend) SetCategoryVisibility(ctx context.Context, name string, visible bool) error {
	body := map[string]bool{"visible": visible}
	return b.do(ctx, http.MethodPut, "/v1/admin/categories/"+url.PathEscape(name), body, true, nil)
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, in interface{}, auth bool, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts "error" or "message" from a JSON error body.
func errorMessage(raw []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		if m.Error != "" {
			return m.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

// Subscribe opens the venue's seat event stream and calls fn for every
// seat event until the subscription is closed or ctx ends.  It returns
// once the server has accepted the stream.
func (b *HTTPBackend) Subscribe(ctx context.Context, venueID string, fn func(model.Seat)) (seatmap.Subscription, error) {
	sctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(sctx, http.MethodGet, b.base+"/v1/venues/"+url.PathEscape(venueID)+"/seats/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.stream.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open seat stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		cancel()
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
	}

	sub := &streamSub{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer resp.Body.Close()
		if err := readEvents(resp.Body, func(event, data string) {
			if event != "seat" {
				return
			}
			var s model.Seat
			if err := json.Unmarshal([]byte(data), &s); err != nil {
				b.log.Warn("dropping malformed seat event", "venue_id", venueID, "error", err)
				return
			}
			fn(s)
		}); err != nil && sctx.Err() == nil {
			b.log.Warn("seat stream ended", "venue_id", venueID, "error", err)
		}
	}()
	return sub, nil
}

type streamSub struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Close stops the stream and waits for the reader to exit.
func (s *streamSub) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// readEvents parses a text/event-stream body and calls emit for every
// complete event.  Comment lines are ignored.
func readEvents(r io.Reader, emit func(event, data string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var event string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if event == "" {
					event = "message"
				}
				emit(event, strings.Join(data, "\n"))
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return sc.Err()
}
