// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldpass/venue-booking/internal/handler"
	"github.com/fieldpass/venue-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Health and metrics are for load balancers and scrapers; venue browsing
// and availability are open to guests so they can shop before signing up.
func RegisterRoutes(e *echo.Echo, v *handler.VenueHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/v1/venues", v.ListVenues)
	e.GET("/v1/venues/:id", v.GetVenue)
	e.GET("/v1/venues/:id/availability", v.Availability)
}

// RegisterProtected registers routes that require a valid access token.
// Venue creation is restricted to owners and admins; booking endpoints
// accept any authenticated role.
func RegisterProtected(e *echo.Echo, v *handler.VenueHandler, b *handler.BookingHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.POST("/venues", v.CreateVenue, middleware.RequireRole("OWNER", "ADMIN"))

	auth.POST("/bookings", b.CreateBooking)
	auth.GET("/bookings/:code", b.GetBooking)
}
