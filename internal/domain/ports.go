package domain

import "context"

// Store is keyed storage for hotels, rooms, customers and reservations.
// It does not check foreign keys; callers do. Missing rows yield ErrNotFound,
// unique violations ErrDuplicate.
type Store interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	CreateHotel(ctx context.Context, h Hotel) (Hotel, error)
	UpdateHotel(ctx context.Context, h Hotel) (Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error

	GetRoom(ctx context.Context, id int64) (Room, error)
	// LockRoom reads a room holding a row lock until the enclosing
	// transaction ends. Outside InTx it behaves like GetRoom.
	LockRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context, f RoomFilter) ([]Room, error)
	CreateRoom(ctx context.Context, r Room) (Room, error)
	UpdateRoom(ctx context.Context, r Room) (Room, error)
	DeleteRoom(ctx context.Context, id int64) error

	GetCustomer(ctx context.Context, id int64) (Customer, error)
	FindCustomerByNationalID(ctx context.Context, nationalID string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateCustomer(ctx context.Context, c Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (Customer, error)

	GetReservation(ctx context.Context, id int64) (ReservationView, error)
	// ListReservations orders by check-in, room floor, room number, id.
	ListReservations(ctx context.Context, f ReservationFilter) ([]ReservationView, error)
	CountReservations(ctx context.Context, f ReservationFilter) (int64, error)
	CreateReservation(ctx context.Context, r Reservation) (Reservation, error)

	// InTx runs fn against a transactional Store. fn's error rolls back.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
