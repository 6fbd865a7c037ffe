package domain

import "time"

type BookingEventType string

const (
	EventBookingCommitted     BookingEventType = "BookingCommitted"
	EventBookingStatusChanged BookingEventType = "BookingStatusChanged"
)

// BookingEvent is published after a booking was committed or its status moved.
type BookingEvent struct {
	ID             string                `json:"event_id"`
	Type           BookingEventType      `json:"event_type"`
	BookingID      string                `json:"booking_id"`
	UserID         string                `json:"user_id,omitempty"`
	Status         BookingStatus         `json:"status"`
	PreviousStatus BookingStatus         `json:"previous_status,omitempty"`
	GrandTotal     int64                 `json:"grand_total"`
	Record         *BookingHistoryRecord `json:"record,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}
