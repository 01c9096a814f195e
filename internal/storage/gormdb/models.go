package gormdb

import (
	"time"

	"gorm.io/datatypes"

	"hotel_reservations/internal/domain"
)

type hotelModel struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Address   string `gorm:"size:512;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (hotelModel) TableName() string { return "hotels" }

// RoomModel and ReservationModel stay exported so gorm maps their columns
// when the joined row types below embed them.
type RoomModel struct {
	ID        int64  `gorm:"primaryKey"`
	Number    string `gorm:"size:32;not null"`
	HotelID   int64  `gorm:"not null;index:idx_rooms_hotel,priority:1"`
	PositionX int    `gorm:"not null"`
	PositionY int    `gorm:"not null"`
	Floor     string `gorm:"size:16;not null"`
	Capacity  int    `gorm:"not null;index:idx_rooms_hotel,priority:2;check:chk_rooms_capacity,capacity >= 1"`
	Features  string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RoomModel) TableName() string { return "rooms" }

type customerModel struct {
	ID         int64  `gorm:"primaryKey"`
	NationalID string `gorm:"size:64;not null;uniqueIndex"`
	FirstName  string `gorm:"size:128;not null"`
	LastName   string `gorm:"size:128;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (customerModel) TableName() string { return "customers" }

type ReservationModel struct {
	ID         int64          `gorm:"primaryKey"`
	Reference  string         `gorm:"size:36;not null;uniqueIndex"`
	HotelID    int64          `gorm:"not null;index:idx_reservations_hotel_stay,priority:1"`
	RoomID     int64          `gorm:"not null;index:idx_reservations_room_stay,priority:1"`
	CustomerID int64          `gorm:"not null;index"`
	CheckIn    datatypes.Date `gorm:"not null;index:idx_reservations_room_stay,priority:2;index:idx_reservations_hotel_stay,priority:2"`
	CheckOut   datatypes.Date `gorm:"not null"`
	GuestCount int            `gorm:"not null"`
	CreatedAt  time.Time
}

func (ReservationModel) TableName() string { return "reservations" }

// Row shapes for joined reads.

type roomRow struct {
	RoomModel
	HotelName    string
	HotelAddress string
}

type reservationRow struct {
	ReservationModel
	HotelName          string
	HotelAddress       string
	RoomNumber         string
	RoomFloor          string
	RoomCapacity       int
	RoomFeatures       string
	CustomerNationalID string
	CustomerFirstName  string
	CustomerLastName   string
}

func allModels() []any {
	return []any{&hotelModel{}, &RoomModel{}, &customerModel{}, &ReservationModel{}}
}

func (m hotelModel) toDomain() domain.Hotel {
	return domain.Hotel{ID: m.ID, Name: m.Name, Address: m.Address, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (r roomRow) toDomain() domain.Room {
	return domain.Room{
		ID:        r.ID,
		Number:    r.Number,
		HotelID:   r.HotelID,
		PositionX: r.PositionX,
		PositionY: r.PositionY,
		Floor:     r.Floor,
		Capacity:  r.Capacity,
		Features:  r.Features,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Hotel:     &domain.HotelSummary{Name: r.HotelName, Address: r.HotelAddress},
	}
}

func (m customerModel) toDomain() domain.Customer {
	return domain.Customer{
		ID:         m.ID,
		NationalID: m.NationalID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (m ReservationModel) toDomain() domain.Reservation {
	return domain.Reservation{
		ID:         m.ID,
		Reference:  m.Reference,
		HotelID:    m.HotelID,
		RoomID:     m.RoomID,
		CustomerID: m.CustomerID,
		Stay:       domain.NewStay(time.Time(m.CheckIn), time.Time(m.CheckOut)),
		GuestCount: m.GuestCount,
		CreatedAt:  m.CreatedAt,
	}
}

func (r reservationRow) toDomain() domain.ReservationView {
	return domain.ReservationView{
		Reservation: r.ReservationModel.toDomain(),
		Hotel:       domain.HotelSummary{Name: r.HotelName, Address: r.HotelAddress},
		Room: domain.RoomSummary{
			Number:   r.RoomNumber,
			Floor:    r.RoomFloor,
			Capacity: r.RoomCapacity,
			Features: r.RoomFeatures,
		},
		Customer: domain.CustomerSummary{
			NationalID: r.CustomerNationalID,
			FirstName:  r.CustomerFirstName,
			LastName:   r.CustomerLastName,
		},
	}
}
