package seatmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// fakeBackend serves a fixed venue, records calls and lets tests push
// realtime events.
type fakeBackend struct {
	mu       sync.Mutex
	venue    *model.Venue
	cats     []model.Category
	visible  []model.Category
	fetchErr error
	gate     chan struct{}
	fetched  chan struct{}

	fetches  int
	subs     int
	closed   int
	attempts int
	handler  func(model.Seat)

	attemptFunc func(ctx context.Context, req BookingRequest) (BookingResult, error)
}

func newFakeBackend(v *model.Venue) *fakeBackend {
	return &fakeBackend{venue: v, cats: testCategories()}
}

func (f *fakeBackend) FetchVenue(ctx context.Context, venueID string) (*VenueData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.fetches++
	if f.fetchErr != nil {
		defer f.mu.Unlock()
		return nil, f.fetchErr
	}
	if f.venue == nil || f.venue.ID != venueID {
		defer f.mu.Unlock()
		return nil, ErrVenueNotFound
	}
	data := &VenueData{Venue: cloneVenue(f.venue), Categories: f.cats}
	gate, fetched := f.gate, f.fetched
	f.mu.Unlock()

	// The response is fixed here; the gate holds it back from the caller.
	if gate != nil {
		fetched <- struct{}{}
		<-gate
	}
	return data, nil
}

// hold makes the next fetches block after reading the venue until the
// returned release func is called.  The channel fires once per fetch.
func (f *fakeBackend) hold() (fetched <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.fetched = make(chan struct{}, 1)
	gate := f.gate
	return f.fetched, func() { close(gate) }
}

func cloneVenue(v *model.Venue) *model.Venue {
	out := *v
	out.Zones = nil
	for _, z := range v.Zones {
		zc := *z
		zc.Rows = nil
		for _, r := range z.Rows {
			rc := *r
			rc.Seats = nil
			for _, s := range r.Seats {
				sc := *s
				rc.Seats = append(rc.Seats, &sc)
			}
			zc.Rows = append(zc.Rows, &rc)
		}
		out.Zones = append(out.Zones, &zc)
	}
	return &out
}

func (f *fakeBackend) VisibleCategories(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visible != nil {
		return f.visible, nil
	}
	return f.cats, nil
}

func (f *fakeBackend) Subscribe(_ context.Context, _ string, fn func(model.Seat)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs++
	f.handler = fn
	return &fakeSub{close: func() {
		f.mu.Lock()
		f.closed++
		f.handler = nil
		f.mu.Unlock()
	}}, nil
}

func (f *fakeBackend) AttemptBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	f.mu.Lock()
	f.attempts++
	fn := f.attemptFunc
	f.mu.Unlock()
	if fn == nil {
		return BookingResult{Success: true, BookingID: "b-1"}, nil
	}
	return fn(ctx, req)
}

// push delivers a seat event the way the realtime feed would.
func (f *fakeBackend) push(s model.Seat) {
	f.mu.Lock()
	fn := f.handler
	f.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeBackend) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

type fakeSub struct{ close func() }

func (s *fakeSub) Close() error {
	s.close()
	return nil
}

func testCategories() []model.Category {
	return []model.Category{
		{Name: "VIP", Color: "#d4af37", Price: 150000},
		{Name: "Regular", Color: "#4a90d9", Price: 80000},
	}
}

// testVenue builds venue "v1" with one zone and one row.  Each status
// becomes seat S<n>, category Regular.
func testVenue(statuses ...model.SeatStatus) *model.Venue {
	row := &model.Row{ID: "R1", RowNumber: "A", X: 10, Y: 20}
	for i, st := range statuses {
		row.Seats = append(row.Seats, &model.Seat{
			ID:         fmt.Sprintf("S%d", i+1),
			VenueID:    "v1",
			SeatNumber: fmt.Sprint(i + 1),
			Category:   "Regular",
			Status:     st,
			X:          float64(i) * 30,
			Y:          0,
			Radius:     12,
		})
	}
	return &model.Venue{
		ID: "v1", Name: "Main Hall", Width: 1200, Height: 800,
		Zones: []*model.Zone{{ID: "Z1", Name: "Floor", X: 100, Y: 100, Rows: []*model.Row{row}}},
	}
}

func availableVenue(n int) *model.Venue {
	st := make([]model.SeatStatus, n)
	for i := range st {
		st[i] = model.SeatAvailable
	}
	return testVenue(st...)
}
