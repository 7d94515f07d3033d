package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

type streamFunc func(ctx context.Context, venueID string) (<-chan model.Seat, error)

func (f streamFunc) Stream(ctx context.Context, venueID string) (<-chan model.Seat, error) {
	return f(ctx, venueID)
}

func TestStreamSeats(t *testing.T) {
	feed := make(chan model.Seat, 2)
	stream := streamFunc(func(_ context.Context, venueID string) (<-chan model.Seat, error) {
		assert.Equal(t, "v1", venueID)
		return feed, nil
	})
	e := newEcho()
	e.GET("/v1/venues/:id/seats/stream", NewStreamHandler(stream, time.Hour, logger.NewNop()).Seats)
	srv := httptest.NewServer(e)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/venues/v1/seats/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	feed <- model.Seat{ID: "S1", VenueID: "v1", Status: model.SeatHold}

	sc := bufio.NewScanner(resp.Body)
	var event, data string
	deadline := time.After(2 * time.Second)
	for data == "" {
		lines := make(chan string, 1)
		go func() {
			if sc.Scan() {
				lines <- sc.Text()
			} else {
				close(lines)
			}
		}()
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream ended early")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		case <-deadline:
			t.Fatal("timed out waiting for seat event")
		}
	}
	assert.Equal(t, "seat", event)
	var seat model.Seat
	require.NoError(t, json.Unmarshal([]byte(data), &seat))
	assert.Equal(t, "S1", seat.ID)
	assert.Equal(t, model.SeatHold, seat.Status)
	close(feed)
}

func TestStreamSeats_Unavailable(t *testing.T) {
	stream := streamFunc(func(context.Context, string) (<-chan model.Seat, error) {
		return nil, errors.New("redis down")
	})
	e := newEcho()
	e.GET("/v1/venues/:id/seats/stream", NewStreamHandler(stream, 0, logger.NewNop()).Seats)
	rec := do(e, http.MethodGet, "/v1/venues/v1/seats/stream", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
