package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

// SeatStream opens a per-connection feed of changed seats.  The returned
// channel is closed when ctx ends.
type SeatStream interface {
	Stream(ctx context.Context, venueID string) (<-chan model.Seat, error)
}

// StreamHandler serves seat changes as Server-Sent Events.
type StreamHandler struct {
	seats     SeatStream
	heartbeat time.Duration
	log       logger.Logger
}

func NewStreamHandler(seats SeatStream, heartbeat time.Duration, log logger.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &StreamHandler{seats: seats, heartbeat: heartbeat, log: log}
}

// Seats handles GET /v1/venues/:id/seats/stream.  Each changed seat is
// written as one "seat" event carrying the full seat record.  Comment
// lines keep idle connections open through proxies.
func (h *StreamHandler) Seats(c echo.Context) error {
	venueID := c.Param("id")
	if venueID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx := c.Request().Context()

	ch, err := h.seats.Stream(ctx, venueID)
	if err != nil {
		h.log.Error("open seat stream failed", "venue_id", venueID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime unavailable"})
	}

	clientID := uuid.NewString()
	log := h.log.With("venue_id", venueID, "client_id", clientID)
	log.Debug("seat stream opened")
	defer log.Debug("seat stream closed")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	fmt.Fprintf(res, ": connected %s\n\n", clientID)
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case seat, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(seat)
			if err != nil {
				log.Warn("encode seat failed", "seat_id", seat.ID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: seat\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
