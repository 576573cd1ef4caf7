// Package handler contains the Echo HTTP handlers.  Handlers are a thin
// layer over the engine: they bind inputs, extract identity from the
// request context and translate engine errors into HTTP responses.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/interval"
)

// getUserID extracts the authenticated user's id from the context, where
// the JWT middleware stored the token subject.  JSON numbers arrive as
// float64; string subjects are parsed.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	case uint64:
		if v > 0 {
			return v, nil
		}
	}
	return 0, errors.New("no authenticated user")
}

// writeEngineError translates engine and interval sentinels into HTTP
// responses.  Unknown errors become 500; storage outages become 503 so
// callers can apply their own retry policy.
func writeEngineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, interval.ErrInvalidFormat),
		errors.Is(err, interval.ErrInvalidInterval),
		errors.Is(err, engine.ErrInvalidVenueInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrVenueNotFound),
		errors.Is(err, engine.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrVenueInactive),
		errors.Is(err, engine.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
