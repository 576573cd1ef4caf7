package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/queue"
)

// BookingHandler serves booking creation and lookup.
type BookingHandler struct {
	Engine *engine.Engine
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(e *engine.Engine) *BookingHandler {
	if e == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: e}
}

// CreateBooking handles POST /v1/bookings.  The authenticated user is
// taken from the JWT claims; the body supplies venue, date and interval.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	var in engine.CreateBookingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in.UserID = userID

	booking, err := h.Engine.CreateBooking(c.Request().Context(), in)
	if err != nil {
		return writeEngineError(c, err)
	}

	// Publish after commit so a broker outage never loses a booking.
	event := queue.BookingCreatedEvent{
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		UserID:      booking.UserID,
		VenueID:     booking.VenueID,
		Date:        booking.Date,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		TotalPrice:  booking.TotalPrice.String(),
		CreatedAt:   booking.CreatedAt.UTC().Format(time.RFC3339),
	}
	if v, err := h.Engine.GetVenue(c.Request().Context(), booking.VenueID); err == nil {
		event.VenueName = v.Name
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.PublishBookingCreated(ctx, event)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"item": booking})
}

// GetBooking handles GET /v1/bookings/:code.  Users may only read their
// own bookings; admins may read any.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking code is required"})
	}

	// Identity first: anonymous requests are turned away before any
	// store work.
	userID, uerr := getUserID(c)
	if uerr != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	role, _ := c.Get("role").(string)

	booking, err := h.Engine.GetBooking(c.Request().Context(), code)
	if err != nil {
		return writeEngineError(c, err)
	}
	if booking.UserID != userID && role != "ADMIN" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": booking})
}
