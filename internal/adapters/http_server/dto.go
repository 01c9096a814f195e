package httpserver

import (
	"hotel_reservations/internal/app"
	"hotel_reservations/internal/domain"
)

// bookingBody is the POST /reservations payload. Dates stay strings until
// parsed so a malformed date is reported as a validation error.
type bookingBody struct {
	HotelID    int64  `json:"hotelId"`
	RoomID     int64  `json:"roomId"`
	NationalID string `json:"nationalId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	GuestCount int    `json:"guestCount"`
}

func (b bookingBody) complete() bool {
	return b.HotelID != 0 && b.RoomID != 0 && b.NationalID != "" &&
		b.CheckIn != "" && b.CheckOut != "" && b.GuestCount != 0
}

// toRequest parses the dates only once every required field is present, so
// an incomplete body is reported as missing fields before any bad date.
func (b bookingBody) toRequest() (app.BookingRequest, error) {
	req := app.BookingRequest{
		HotelID:    b.HotelID,
		RoomID:     b.RoomID,
		NationalID: b.NationalID,
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		GuestCount: b.GuestCount,
	}
	if !b.complete() {
		return req, nil
	}
	var err error
	if req.CheckIn, err = parseDateField("checkIn", b.CheckIn); err != nil {
		return req, err
	}
	if req.CheckOut, err = parseDateField("checkOut", b.CheckOut); err != nil {
		return req, err
	}
	return req, nil
}

type reservationDTO struct {
	ID         int64                  `json:"id"`
	Reference  string                 `json:"reference"`
	HotelID    int64                  `json:"hotelId"`
	RoomID     int64                  `json:"roomId"`
	CustomerID int64                  `json:"customerId"`
	CheckIn    string                 `json:"checkIn"`
	CheckOut   string                 `json:"checkOut"`
	Nights     int                    `json:"nights"`
	GuestCount int                    `json:"guestCount"`
	CreatedAt  string                 `json:"createdAt"`
	Hotel      domain.HotelSummary    `json:"hotel"`
	Room       domain.RoomSummary     `json:"room"`
	Customer   domain.CustomerSummary `json:"customer"`
}

func toReservationDTO(v domain.ReservationView) reservationDTO {
	return reservationDTO{
		ID:         v.ID,
		Reference:  v.Reference,
		HotelID:    v.HotelID,
		RoomID:     v.RoomID,
		CustomerID: v.CustomerID,
		CheckIn:    domain.FormatDate(v.Stay.CheckIn),
		CheckOut:   domain.FormatDate(v.Stay.CheckOut),
		Nights:     v.Stay.Nights(),
		GuestCount: v.GuestCount,
		CreatedAt:  v.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Hotel:      v.Hotel,
		Room:       v.Room,
		Customer:   v.Customer,
	}
}

func toReservationDTOs(vs []domain.ReservationView) []reservationDTO {
	out := make([]reservationDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, toReservationDTO(v))
	}
	return out
}

type messageBody struct {
	Message string `json:"message"`
}

type duplicateCustomerBody struct {
	Message  string           `json:"message"`
	Customer *domain.Customer `json:"customer,omitempty"`
}
