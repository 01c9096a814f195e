package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Reservation struct {
	ID         int64
	Reference  string
	HotelID    int64
	RoomID     int64
	CustomerID int64
	Stay       Stay
	GuestCount int
	CreatedAt  time.Time
}

// ReservationView is a reservation joined with the hotel, room and customer
// fields shown to clients.
type ReservationView struct {
	Reservation
	Hotel    HotelSummary
	Room     RoomSummary
	Customer CustomerSummary
}

type ReservationFilter struct {
	HotelID    *int64
	RoomID     *int64
	CustomerID *int64
	// CheckIn and CheckOut match exactly.
	CheckIn  *time.Time
	CheckOut *time.Time
	// Overlapping selects reservations whose stay intersects this one.
	Overlapping *Stay
}

// Stay is the half-open interval [CheckIn, CheckOut) of calendar dates.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func NewStay(checkIn, checkOut time.Time) Stay {
	return Stay{CheckIn: TruncateDate(checkIn), CheckOut: TruncateDate(checkOut)}
}

// Valid reports whether the stay covers at least one night.
func (s Stay) Valid() bool { return s.CheckIn.Before(s.CheckOut) }

// Overlaps is the single conflict test: [a1,a2) and [b1,b2) intersect iff a1 < b2 && b1 < a2.
// Touching stays (one checks out the day the other checks in) do not overlap.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(s.CheckOut)
}

func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// TruncateDate drops the time of day, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func FormatDate(t time.Time) string { return t.UTC().Format(DateLayout) }
