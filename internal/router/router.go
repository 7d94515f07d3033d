// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/handler"
	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/middleware"
)

// Deps carries what the route groups need.  Redis may be nil, in which
// case the response cache and the rate limiter pass requests through.
type Deps struct {
	Venues    *handler.VenueHandler
	Bookings  *handler.BookingHandler
	Admin     *handler.AdminHandler
	Stream    *handler.StreamHandler
	Ready     echo.HandlerFunc
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       logger.Logger
}

// New builds the echo instance with every route and the shared middleware.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.Ready)
	RegisterPublic(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers the health endpoints.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterPublic registers the guest endpoints.  Category reads are cached
// in Redis; booking attempts are rate limited per client.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	v1 := e.Group("/v1")
	v1.GET("/venues/:id", d.Venues.GetVenue)
	v1.GET("/venues/:id/seats/stream", d.Stream.Seats)
	v1.GET("/categories", d.Venues.ListCategories, cache)

	v1.POST("/bookings", d.Bookings.Create, limit)
	v1.GET("/bookings/:id", d.Bookings.Get)
	v1.POST("/bookings/:id/payment-proof", d.Bookings.SubmitPaymentProof, limit)
}

// RegisterAdmin registers the reviewer endpoints behind JWT and the ADMIN
// role.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin", middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(middleware.RoleAdmin))
	g.POST("/bookings/:id/approve", d.Admin.Approve)
	g.POST("/bookings/:id/reject", d.Admin.Reject)
	g.GET("/categories", d.Admin.ListCategories)
	g.PUT("/categories/:name", d.Admin.SetCategoryVisibility)
}
