package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type BookingStatus string

const (
	BookingStatusUpcoming  BookingStatus = "upcoming"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusUpcoming, BookingStatusCompleted, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// String representation (for logging)
func (s BookingStatus) String() string {
	return string(s)
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

// FieldError names one missing or malformed draft field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// TableSlotSelection is the table and time window picked from the table catalog.
type TableSlotSelection struct {
	TableID       string `json:"table_id"`
	TableName     string `json:"table_name"`
	PricePerHour  int64  `json:"price_per_hour"`
	DurationHours int    `json:"duration_hours"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

func (s TableSlotSelection) TableSubtotal() int64 {
	return s.PricePerHour * int64(s.DurationHours)
}

// Validate reports every field that keeps the selection from being committed.
func (s TableSlotSelection) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(s.TableID) == "" {
		errs = append(errs, FieldError{Field: "table_id", Message: "table is required"})
	}
	if s.DurationHours < 1 {
		errs = append(errs, FieldError{Field: "duration_hours", Message: "duration must be at least 1 hour"})
	}
	if s.PricePerHour < 0 {
		errs = append(errs, FieldError{Field: "price_per_hour", Message: "price must not be negative"})
	}
	if s.Date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "date is required"})
	} else if _, err := time.Parse(DateLayout, s.Date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if s.Time == "" {
		errs = append(errs, FieldError{Field: "time", Message: "time is required"})
	} else if _, err := time.Parse(TimeLayout, s.Time); err != nil {
		errs = append(errs, FieldError{Field: "time", Message: "time must be HH:MM"})
	}
	return errs
}

// BookingDraft is the would-be booking: the current selection plus the cart.
// TableSubtotal and GrandTotal are nil while no table is selected, so that a
// missing selection is never mistaken for a free booking.
type BookingDraft struct {
	Selection     *TableSlotSelection `json:"selection"`
	Cart          Cart                `json:"cart"`
	TableSubtotal *int64              `json:"table_subtotal"`
	GrandTotal    *int64              `json:"grand_total"`
}

func NewBookingDraft(selection *TableSlotSelection, cart Cart) BookingDraft {
	draft := BookingDraft{Cart: cart.Clone()}
	if selection == nil {
		return draft
	}
	sel := *selection
	tableSubtotal := sel.TableSubtotal()
	grandTotal := tableSubtotal + cart.Total
	draft.Selection = &sel
	draft.TableSubtotal = &tableSubtotal
	draft.GrandTotal = &grandTotal
	return draft
}

func (d BookingDraft) Total() (int64, bool) {
	if d.GrandTotal == nil {
		return 0, false
	}
	return *d.GrandTotal, true
}

type BookingHistoryRecord struct {
	ID                string        `json:"id" bson:"id"`
	TableID           string        `json:"table_id" bson:"table_id"`
	TableName         string        `json:"table_name" bson:"table_name"`
	BookingDate       string        `json:"booking_date" bson:"booking_date"`
	BookingTime       string        `json:"booking_time" bson:"booking_time"`
	DurationHours     int           `json:"duration_hours" bson:"duration_hours"`
	TablePricePerHour int64         `json:"table_price_per_hour" bson:"table_price_per_hour"`
	TableSubtotal     int64         `json:"table_subtotal" bson:"table_subtotal"`
	MenuItems         []CartItem    `json:"menu_items" bson:"menu_items"`
	MenuSubtotal      int64         `json:"menu_subtotal" bson:"menu_subtotal"`
	GrandTotal        int64         `json:"grand_total" bson:"grand_total"`
	Status            BookingStatus `json:"status" bson:"status"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
}

// NewBookingRecord snapshots the selection and the cart into an upcoming record.
// The menu items are copied, so later cart mutations never reach the record.
func NewBookingRecord(id string, sel TableSlotSelection, cart Cart, createdAt time.Time) BookingHistoryRecord {
	tableSubtotal := sel.TableSubtotal()
	return BookingHistoryRecord{
		ID:                id,
		TableID:           sel.TableID,
		TableName:         sel.TableName,
		BookingDate:       sel.Date,
		BookingTime:       sel.Time,
		DurationHours:     sel.DurationHours,
		TablePricePerHour: sel.PricePerHour,
		TableSubtotal:     tableSubtotal,
		MenuItems:         cloneItems(cart.Items),
		MenuSubtotal:      cart.Total,
		GrandTotal:        tableSubtotal + cart.Total,
		Status:            BookingStatusUpcoming,
		CreatedAt:         createdAt,
	}
}

func (r BookingHistoryRecord) Clone() BookingHistoryRecord {
	r.MenuItems = cloneItems(r.MenuItems)
	return r
}
