package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/middleware"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// AdminHandler groups the reviewer operations.  Routes are expected to sit
// behind JWTAuth and RequireRole(ADMIN).
type AdminHandler struct {
	bookings *BookingHandler
	cats     CategoryStore
	log      logger.Logger
}

func NewAdminHandler(bookings *BookingHandler, cats CategoryStore, log logger.Logger) *AdminHandler {
	return &AdminHandler{bookings: bookings, cats: cats, log: log}
}

type visibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// Approve handles POST /v1/admin/bookings/:id/approve.
func (h *AdminHandler) Approve(c echo.Context) error {
	b, err := h.bookings.svc.Approve(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return h.bookings.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Reject handles POST /v1/admin/bookings/:id/reject and frees the seats.
func (h *AdminHandler) Reject(c echo.Context) error {
	b, err := h.bookings.svc.Reject(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return h.bookings.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListCategories handles GET /v1/admin/categories, hidden ones included.
func (h *AdminHandler) ListCategories(c echo.Context) error {
	cats, err := h.cats.All(c.Request().Context())
	if err != nil {
		h.log.Error("load categories failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, cats)
}

// SetCategoryVisibility handles PUT /v1/admin/categories/:name.
func (h *AdminHandler) SetCategoryVisibility(c echo.Context) error {
	var body visibilityRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	name := c.Param("name")
	if err := h.cats.SetVisible(c.Request().Context(), name, *body.Visible); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		h.log.Error("set category visibility failed", "category", name, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.log.Info("category visibility changed", "category", name, "visible", *body.Visible, "by", middleware.UserID(c))
	return c.NoContent(http.StatusNoContent)
}
