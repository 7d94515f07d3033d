package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/seatmap"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func testVenue() seatmap.VenueData {
	return seatmap.VenueData{
		Venue: &model.Venue{ID: "v1", Name: "Hall", Zones: []*model.Zone{{
			ID: "Z1",
			Rows: []*model.Row{{ID: "R1", RowNumber: "A", Seats: []*model.Seat{
				{ID: "S1", VenueID: "v1", SeatNumber: "1", Category: "VIP", Status: model.SeatAvailable},
				{ID: "S2", VenueID: "v1", SeatNumber: "2", Category: "VIP", Status: model.SeatAvailable},
			}}},
		}}},
		Categories: []model.Category{{Name: "VIP", Color: "#f00", Price: 100}},
	}
}

func newServer(t *testing.T, events <-chan model.Seat) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/venues/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, testVenue())
	})
	mux.HandleFunc("/v1/venues/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "venue not found"})
	})
	mux.HandleFunc("/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, testVenue().Categories)
	})
	mux.HandleFunc("/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		var req seatmap.BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case req.Name == "boom":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "booking failed"})
		case req.Name == "bad":
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email must be a valid email"})
		case len(req.SeatIDs) > 0 && req.SeatIDs[0] == "S2":
			writeJSON(w, http.StatusConflict, seatmap.BookingResult{Message: "Seats no longer available: A-2"})
		default:
			writeJSON(w, http.StatusCreated, seatmap.BookingResult{Success: true, BookingID: "b1"})
		}
	})
	mux.HandleFunc("/v1/bookings/b1/payment-proof", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, model.Booking{ID: "b1", Status: model.BookingPendingApproval, PaymentProofURL: ptr(body["payment_proof_url"])})
	})
	mux.HandleFunc("/v1/admin/bookings/b1/approve", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, model.Booking{ID: "b1", Status: model.BookingApproved})
	})
	mux.HandleFunc("/v1/venues/v1/seats/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		fmt.Fprint(w, ": connected\n\n")
		fl.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case s, ok := <-events:
				if !ok {
					return
				}
				data, _ := json.Marshal(s)
				fmt.Fprintf(w, "event: seat\ndata: %s\n\n", data)
				fmt.Fprint(w, "event: other\ndata: {}\n\n")
				fl.Flush()
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func ptr(s string) *string { return &s }

func TestFetchVenue(t *testing.T) {
	srv := newServer(t, nil)
	b := New(srv.URL + "/")

	data, err := b.FetchVenue(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Hall", data.Venue.Name)
	assert.Len(t, data.Categories, 1)

	_, err = b.FetchVenue(context.Background(), "missing")
	assert.ErrorIs(t, err, seatmap.ErrVenueNotFound)

	cats, err := b.VisibleCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), cats[0].Price)
}

func TestAttemptBooking(t *testing.T) {
	srv := newServer(t, nil)
	b := New(srv.URL)
	ctx := context.Background()

	res, err := b.AttemptBooking(ctx, seatmap.BookingRequest{SeatIDs: []string{"S1"}, Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, seatmap.BookingResult{Success: true, BookingID: "b1"}, res)

	res, err = b.AttemptBooking(ctx, seatmap.BookingRequest{SeatIDs: []string{"S2"}, Name: "Ada"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Seats no longer available: A-2", res.Message)

	_, err = b.AttemptBooking(ctx, seatmap.BookingRequest{SeatIDs: []string{"S1"}, Name: "bad"})
	var invalid *seatmap.InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "email must be a valid email", invalid.Message)

	_, err = b.AttemptBooking(ctx, seatmap.BookingRequest{SeatIDs: []string{"S1"}, Name: "boom"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestAttemptBooking_TransportError(t *testing.T) {
	srv := newServer(t, nil)
	b := New(srv.URL)
	srv.Close()

	_, err := b.AttemptBooking(context.Background(), seatmap.BookingRequest{SeatIDs: []string{"S1"}})
	assert.Error(t, err)
}

func TestPaymentAndReview(t *testing.T) {
	srv := newServer(t, nil)
	ctx := context.Background()

	bk, err := New(srv.URL).SubmitPaymentProof(ctx, "b1", "https://cdn/p.png")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPendingApproval, bk.Status)
	assert.Equal(t, "https://cdn/p.png", *bk.PaymentProofURL)

	_, err = New(srv.URL).Approve(ctx, "b1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "missing or invalid token", se.Message)

	bk, err = New(srv.URL, WithToken("tok")).Approve(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, bk.Status)
}

func TestSubscribe(t *testing.T) {
	events := make(chan model.Seat, 1)
	srv := newServer(t, events)
	b := New(srv.URL, WithLogger(logger.NewNop()))

	var mu sync.Mutex
	var got []model.Seat
	sub, err := b.Subscribe(context.Background(), "v1", func(s model.Seat) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})
	require.NoError(t, err)

	events <- model.Seat{ID: "S1", Status: model.SeatHold}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	mu.Lock()
	assert.Equal(t, model.SeatHold, got[0].Status)
	mu.Unlock()
}

func TestSubscribe_ServerRefuses(t *testing.T) {
	srv := newServer(t, nil)
	_, err := New(srv.URL).Subscribe(context.Background(), "v2", func(model.Seat) {})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestReadEvents(t *testing.T) {
	in := ": comment\n\nevent: seat\ndata: {\"id\":\"S1\"}\n\ndata: a\ndata: b\n\n"
	var got [][2]string
	require.NoError(t, readEvents(strings.NewReader(in), func(e, d string) {
		got = append(got, [2]string{e, d})
	}))
	assert.Equal(t, [][2]string{{"seat", `{"id":"S1"}`}, {"message", "a\nb"}}, got)
}

// The core runs end to end against the HTTP backend.
func TestCatalogOverHTTP(t *testing.T) {
	events := make(chan model.Seat, 1)
	srv := newServer(t, events)
	b := New(srv.URL)

	cat := seatmap.NewCatalog(b, logger.NewNop())
	require.NoError(t, cat.Load(context.Background(), "v1"))
	rec := seatmap.NewReconciler(b, cat, logger.NewNop())
	require.NoError(t, rec.Start(context.Background(), "v1"))
	defer rec.Stop()

	events <- model.Seat{ID: "S2", VenueID: "v1", Category: "VIP", Status: model.SeatBooked}
	assert.Eventually(t, func() bool {
		s, ok := cat.Seat("S2")
		return ok && s.Status == model.SeatBooked
	}, 2*time.Second, 10*time.Millisecond)
}
