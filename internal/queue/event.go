// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer that move them.
package queue

// BookingCreatedEvent is published when a booking transaction commits.
// It contains enough information for downstream consumers (payment
// initiation, notifications, analytics) without querying the primary
// database.
type BookingCreatedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	BookingCode string `json:"booking_code"`
	UserID      uint64 `json:"user_id"`
	VenueID     uint64 `json:"venue_id"`
	VenueName   string `json:"venue_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TotalPrice  string `json:"total_price"`
	CreatedAt   string `json:"created_at"`
}

// PaymentConfirmedEvent is received from the payment collaborator when a
// payment for a booking succeeds.  The consumer transitions the booking
// from PENDING to CONFIRMED.
type PaymentConfirmedEvent struct {
	BookingCode string `json:"booking_code"`
	PaymentRef  string `json:"payment_ref"`
	ConfirmedAt string `json:"confirmed_at"`
}
