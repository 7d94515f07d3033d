package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/seatmap"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// BookingService is the subset of the booking use cases the HTTP layer
// calls.  *service.BookingService satisfies it.
type BookingService interface {
	Attempt(ctx context.Context, req seatmap.BookingRequest) (seatmap.BookingResult, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	SubmitPaymentProof(ctx context.Context, id, proofURL string) (*model.Booking, error)
	Approve(ctx context.Context, id, reviewer string) (*model.Booking, error)
	Reject(ctx context.Context, id, reviewer string) (*model.Booking, error)
}

// BookingHandler exposes the guest booking flow.  Guests do not log in;
// the booking id returned by Create is the only handle on a booking.
type BookingHandler struct {
	svc BookingService
	log logger.Logger
}

func NewBookingHandler(svc BookingService, log logger.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

type createBookingRequest struct {
	VenueID         string   `json:"venue_id" validate:"required"`
	SeatIDs         []string `json:"seat_ids" validate:"required,min=1,dive,required"`
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           string   `json:"phone" validate:"required"`
	Amount          int64    `json:"amount" validate:"gte=0"`
	PaymentProofURL *string  `json:"payment_proof_url" validate:"omitempty,url"`
}

type paymentProofRequest struct {
	PaymentProofURL string `json:"payment_proof_url" validate:"required,url"`
}

// Create handles POST /v1/bookings.  Every requested seat is held under a
// new booking or none is.  It returns 201 with the booking id on success,
// 409 with a message naming the unavailable seats when the hold is
// refused, 400 for a malformed body and 500 when storage fails.
func (h *BookingHandler) Create(c echo.Context) error {
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	res, err := h.svc.Attempt(c.Request().Context(), seatmap.BookingRequest{
		VenueID:         body.VenueID,
		SeatIDs:         body.SeatIDs,
		Name:            body.Name,
		Email:           body.Email,
		Phone:           body.Phone,
		Amount:          body.Amount,
		PaymentProofURL: body.PaymentProofURL,
	})
	if err != nil {
		if service.IsValidation(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	if !res.Success {
		return c.JSON(http.StatusConflict, res)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// SubmitPaymentProof handles POST /v1/bookings/:id/payment-proof and moves
// a live hold to pending approval.
func (h *BookingHandler) SubmitPaymentProof(c echo.Context) error {
	var body paymentProofRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.svc.SubmitPaymentProof(c.Request().Context(), c.Param("id"), body.PaymentProofURL)
	if err != nil {
		return h.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// transitionError maps repository and service errors to HTTP responses.
func (h *BookingHandler) transitionError(c echo.Context, err error) error {
	switch {
	case service.IsValidation(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrHoldExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		h.log.Error("booking transition failed", "booking_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
