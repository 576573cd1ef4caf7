package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/fieldpass/venue-booking/internal/engine"
)

// VenueHandler serves venue listing, detail, creation and availability
// endpoints on behalf of the engine.
type VenueHandler struct {
	Engine *engine.Engine
}

// NewVenueHandler constructs a VenueHandler.  The engine must be non-nil.
func NewVenueHandler(e *engine.Engine) *VenueHandler {
	if e == nil {
		panic("nil engine passed to NewVenueHandler")
	}
	return &VenueHandler{Engine: e}
}

// ListVenues handles GET /v1/venues.  Recognized query parameters:
// city, sport, min_price, max_price.  Unknown parameters are ignored.
func (h *VenueHandler) ListVenues(c echo.Context) error {
	f := engine.VenueFilter{
		City:  c.QueryParam("city"),
		Sport: c.QueryParam("sport"),
	}
	if s := c.QueryParam("min_price"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
		}
		f.MinPrice = &d
	}
	if s := c.QueryParam("max_price"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		f.MaxPrice = &d
	}

	venues, err := h.Engine.ListVenues(c.Request().Context(), f)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": venues})
}

// GetVenue handles GET /v1/venues/:id.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	v, err := h.Engine.GetVenue(c.Request().Context(), id)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": v})
}

// CreateVenue handles POST /v1/venues.  The request body is the venue
// creation input; the slot template is generated as part of creation.
func (h *VenueHandler) CreateVenue(c echo.Context) error {
	var in engine.CreateVenueInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	v, err := h.Engine.CreateVenue(c.Request().Context(), in)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": v})
}

// Availability handles GET /v1/venues/:id/availability?date=YYYY-MM-DD.
// It returns the venue's free template slots for the date with computed
// prices, ascending by start time.
func (h *VenueHandler) Availability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required"})
	}
	slots, err := h.Engine.ListAvailableSlots(c.Request().Context(), id, date)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"venue_id":        id,
		"date":            date,
		"available_slots": slots,
	})
}
