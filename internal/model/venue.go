package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venue represents a bookable sports venue owned by a user.
// A venue publishes a recurring weekly slot template and accepts
// bookings against it.  This struct corresponds to a row in the
// `venues` table.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – human-friendly venue name.
//  Slug         – URL-safe identifier derived from the name.
//  Description  – optional free-form description.
//  Address      – street address.
//  City         – city used for listing filters.
//  Latitude     – WGS84 latitude, -90..90.
//  Longitude    – WGS84 longitude, -180..180.
//  Sports       – sports playable at the venue (at least one).
//  Facilities   – facility tags (parking, showers, ...).
//  PricePerHour – base hourly price before peak multipliers.
//  OpenTime     – daily opening time of day, "HH:MM".
//  CloseTime    – daily closing time of day, "HH:MM".
//  Rating       – average review rating, used for listing order.
//  IsActive     – soft-delete flag; inactive venues reject bookings.
//  CreatedAt    – timestamp when the row was created.
//  UpdatedAt    – timestamp of last update.
type Venue struct {
	ID           uint64          `json:"id"`             // venues.id
	Name         string          `json:"name"`           // venues.name
	Slug         string          `json:"slug"`           // venues.slug
	Description  string          `json:"description"`    // venues.description
	Address      string          `json:"address"`        // venues.address
	City         string          `json:"city"`           // venues.city
	Latitude     float64         `json:"latitude"`       // venues.latitude
	Longitude    float64         `json:"longitude"`      // venues.longitude
	Sports       []string        `json:"sports"`         // venues.sports (JSON column)
	Facilities   []string        `json:"facilities"`     // venues.facilities (JSON column)
	PricePerHour decimal.Decimal `json:"price_per_hour"` // venues.price_per_hour
	OpenTime     string          `json:"open_time"`      // venues.open_time
	CloseTime    string          `json:"close_time"`     // venues.close_time
	Rating       float64         `json:"rating"`         // venues.rating
	IsActive     bool            `json:"is_active"`      // venues.is_active
	CreatedAt    time.Time       `json:"created_at"`     // venues.created_at
	UpdatedAt    time.Time       `json:"updated_at"`     // venues.updated_at
}
