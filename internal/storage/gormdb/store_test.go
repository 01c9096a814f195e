package gormdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_reservations/internal/domain"
	"hotel_reservations/internal/storage/gormdb"
)

func setupTestStore(t *testing.T) *gormdb.Store {
	t.Helper()
	db, err := gormdb.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, gormdb.Migrate(db))
	return gormdb.New(db)
}

func d(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func p[T any](v T) *T { return &v }

type fixture struct {
	hotel    domain.Hotel
	r101     domain.Room
	r201     domain.Room
	customer domain.Customer
}

func seed(t *testing.T, s *gormdb.Store) fixture {
	t.Helper()
	ctx := context.Background()
	h, err := s.CreateHotel(ctx, domain.Hotel{Name: "Hotel Sol", Address: "Av. Bolivar 1"})
	require.NoError(t, err)
	r201, err := s.CreateRoom(ctx, domain.Room{Number: "201", HotelID: h.ID, Floor: "2", Capacity: 4, Features: "balcony"})
	require.NoError(t, err)
	r101, err := s.CreateRoom(ctx, domain.Room{Number: "101", HotelID: h.ID, Floor: "1", Capacity: 2, PositionX: 3, PositionY: 4})
	require.NoError(t, err)
	c, err := s.CreateCustomer(ctx, domain.Customer{NationalID: "V123", FirstName: "Ana", LastName: "Diaz"})
	require.NoError(t, err)
	return fixture{hotel: h, r101: r101, r201: r201, customer: c}
}

func TestHotelCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	h, err := s.CreateHotel(ctx, domain.Hotel{Name: "Hotel Sol", Address: "Av. 1"})
	require.NoError(t, err)
	assert.NotZero(t, h.ID)

	h.Name = "Hotel Luna"
	updated, err := s.UpdateHotel(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "Hotel Luna", updated.Name)
	assert.Equal(t, "Av. 1", updated.Address)

	_, err = s.UpdateHotel(ctx, domain.Hotel{ID: 999, Name: "x", Address: "y"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := s.ListHotels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteHotel(ctx, h.ID))
	_, err = s.GetHotel(ctx, h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteHotel(ctx, h.ID), domain.ErrNotFound)
}

func TestRoomsJoinHotelAndFilter(t *testing.T) {
	s := setupTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	assert.NotZero(t, f.r101.ID)
	assert.Equal(t, f.hotel.ID, f.r101.HotelID, "create returns the stored row")

	got, err := s.GetRoom(ctx, f.r101.ID)
	require.NoError(t, err)
	assert.Equal(t, f.r101.ID, got.ID)
	assert.Equal(t, f.hotel.ID, got.HotelID)
	assert.Equal(t, "101", got.Number)
	assert.Equal(t, "1", got.Floor)
	assert.Equal(t, 2, got.Capacity)
	require.NotNil(t, got.Hotel)
	assert.Equal(t, "Hotel Sol", got.Hotel.Name)
	assert.Equal(t, 3, got.PositionX)

	rooms, err := s.ListRooms(ctx, domain.RoomFilter{HotelID: &f.hotel.ID})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "201", rooms[0].Number, "rooms come back in insertion order")

	big, err := s.ListRooms(ctx, domain.RoomFilter{HotelID: &f.hotel.ID, MinCapacity: p(3)})
	require.NoError(t, err)
	require.Len(t, big, 1)
	assert.Equal(t, f.r201.ID, big[0].ID)

	locked, err := s.LockRoom(ctx, f.r201.ID)
	require.NoError(t, err)
	assert.Equal(t, f.r201.ID, locked.ID)
	assert.Equal(t, f.hotel.ID, locked.HotelID)
	assert.Equal(t, 4, locked.Capacity)
	assert.Equal(t, "balcony", locked.Features)

	_, err = s.LockRoom(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.r101.Capacity = 3
	upd, err := s.UpdateRoom(ctx, f.r101)
	require.NoError(t, err)
	assert.Equal(t, 3, upd.Capacity)
}

func TestCustomerUniqueNationalID(t *testing.T) {
	s := setupTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	_, err := s.CreateCustomer(ctx, domain.Customer{NationalID: "V123", FirstName: "Other", LastName: "Person"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	found, err := s.FindCustomerByNationalID(ctx, "V123")
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, found.ID)

	_, err = s.FindCustomerByNationalID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found.FirstName = "Anna"
	upd, err := s.UpdateCustomer(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, "Anna", upd.FirstName)
}

func TestReservationsOverlapAndOrdering(t *testing.T) {
	s := setupTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	book := func(room domain.Room, ref, in, out string) domain.Reservation {
		r, err := s.CreateReservation(ctx, domain.Reservation{
			Reference:  ref,
			HotelID:    f.hotel.ID,
			RoomID:     room.ID,
			CustomerID: f.customer.ID,
			Stay:       domain.NewStay(d(in), d(out)),
			GuestCount: 2,
		})
		require.NoError(t, err)
		return r
	}
	book(f.r201, "a", "2024-06-01", "2024-06-05")
	first := book(f.r101, "b", "2024-06-01", "2024-06-05")
	book(f.r101, "c", "2024-05-20", "2024-05-22")
	book(f.r201, "d", "2024-08-01", "2024-08-03")

	assert.True(t, first.Stay.CheckIn.Equal(d("2024-06-01")))

	overlapping := func(in, out string) int64 {
		n, err := s.CountReservations(ctx, domain.ReservationFilter{
			RoomID:      &f.r101.ID,
			Overlapping: &domain.Stay{CheckIn: d(in), CheckOut: d(out)},
		})
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, int64(1), overlapping("2024-06-03", "2024-06-07"))
	assert.Equal(t, int64(0), overlapping("2024-06-05", "2024-06-08"), "touching stays do not overlap")
	assert.Equal(t, int64(2), overlapping("2024-05-01", "2024-07-01"))
	assert.Equal(t, int64(0), overlapping("2024-07-20", "2024-08-10"), "stays of other rooms do not count")

	list, err := s.ListReservations(ctx, domain.ReservationFilter{HotelID: &f.hotel.ID})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "c", list[0].Reference)
	assert.Equal(t, "101", list[1].Room.Number, "same check-in sorts by floor")
	assert.Equal(t, "201", list[2].Room.Number)
	assert.Equal(t, "d", list[3].Reference)
	assert.Equal(t, "V123", list[1].Customer.NationalID)
	assert.Equal(t, "Hotel Sol", list[1].Hotel.Name)

	exact, err := s.ListReservations(ctx, domain.ReservationFilter{CheckIn: p(d("2024-06-01")), CheckOut: p(d("2024-06-05"))})
	require.NoError(t, err)
	assert.Len(t, exact, 2)

	assert.NotZero(t, first.ID)
	v, err := s.GetReservation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, v.ID)
	assert.Equal(t, f.hotel.ID, v.HotelID)
	assert.Equal(t, f.r101.ID, v.RoomID)
	assert.Equal(t, f.customer.ID, v.CustomerID)
	assert.Equal(t, 2, v.GuestCount)
	assert.True(t, v.Stay.CheckOut.Equal(d("2024-06-05")))
	assert.Equal(t, "b", v.Reference)
	assert.Equal(t, 2, v.Room.Capacity)

	_, err = s.GetReservation(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx domain.Store) error {
		if _, err := tx.CreateHotel(ctx, domain.Hotel{Name: "Ghost", Address: "-"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := s.ListHotels(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := gormdb.Open("oracle", "")
	assert.Error(t, err)
}
