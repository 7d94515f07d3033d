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
)

// VenueReader loads a venue layout with current seat states.
type VenueReader interface {
	GetLayout(ctx context.Context, venueID string) (*model.Venue, error)
}

// CategoryStore reads and toggles the admin category filter.
type CategoryStore interface {
	All(ctx context.Context) ([]model.Category, error)
	Visible(ctx context.Context) ([]model.Category, error)
	SetVisible(ctx context.Context, name string, visible bool) error
}

// VenueHandler serves the public, unauthenticated venue reads.
type VenueHandler struct {
	venues VenueReader
	cats   CategoryStore
	log    logger.Logger
}

func NewVenueHandler(venues VenueReader, cats CategoryStore, log logger.Logger) *VenueHandler {
	return &VenueHandler{venues: venues, cats: cats, log: log}
}

// GetVenue handles GET /v1/venues/:id.  It returns the full layout with
// seat states and the visible category table.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx := c.Request().Context()

	venue, err := h.venues.GetLayout(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		h.log.Error("load venue failed", "venue_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cats, err := h.cats.Visible(ctx)
	if err != nil {
		h.log.Error("load categories failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, seatmap.VenueData{Venue: venue, Categories: cats})
}

// ListCategories handles GET /v1/categories and returns only the
// categories an admin has left visible.
func (h *VenueHandler) ListCategories(c echo.Context) error {
	cats, err := h.cats.Visible(c.Request().Context())
	if err != nil {
		h.log.Error("load categories failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, cats)
}
