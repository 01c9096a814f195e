package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_reservations/internal/domain"
)

// CatalogService serves hotels, rooms and customers. Single hotel and room
// reads go through the cache when one is configured.
type CatalogService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(s domain.Store, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{store: s, cache: c, cacheTTL: ttl}
}

// Input structs use pointers so absent JSON fields can be told apart from zero values.

type HotelInput struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

type RoomInput struct {
	Number    *string `json:"number"`
	HotelID   *int64  `json:"hotelId"`
	PositionX *int    `json:"positionX"`
	PositionY *int    `json:"positionY"`
	Floor     *string `json:"floor"`
	Capacity  *int    `json:"capacity"`
	Features  *string `json:"features"`
}

type CustomerInput struct {
	NationalID string `json:"nationalId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}

func blank(p *string) bool { return p == nil || strings.TrimSpace(*p) == "" }

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }
func roomKey(id int64) string  { return fmt.Sprintf("room:%d", id) }

func (s *CatalogService) ttlSec() int { return int(s.cacheTTL.Seconds()) }

// ---- hotels ----

func (s *CatalogService) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	hs, err := s.store.ListHotels(ctx)
	if err != nil {
		return nil, domain.Internal("list hotels", err)
	}
	return hs, nil
}

func (s *CatalogService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, hotelKey(id), &h); ok {
			return h, nil
		}
	}
	h, err := s.store.GetHotel(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Hotel{}, domain.Errorf(domain.ErrHotelNotFound, "hotel %d not found", id)
	}
	if err != nil {
		return domain.Hotel{}, domain.Internal("get hotel", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, hotelKey(id), h, s.ttlSec())
	}
	return h, nil
}

func (s *CatalogService) CreateHotel(ctx context.Context, in HotelInput) (domain.Hotel, error) {
	if blank(in.Name) || blank(in.Address) {
		return domain.Hotel{}, domain.Errorf(domain.ErrMissingFields, "name and address are required")
	}
	h, err := s.store.CreateHotel(ctx, domain.Hotel{Name: *in.Name, Address: *in.Address})
	if err != nil {
		return domain.Hotel{}, domain.Internal("create hotel", err)
	}
	log.Info().Str("component", "hotel").Int64("hotel_id", h.ID).Msg("hotel created")
	return h, nil
}

// UpdateHotel changes name and/or address; absent fields keep their value.
func (s *CatalogService) UpdateHotel(ctx context.Context, id int64, in HotelInput) (domain.Hotel, error) {
	h, err := s.store.GetHotel(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Hotel{}, domain.Errorf(domain.ErrHotelNotFound, "hotel %d not found", id)
	}
	if err != nil {
		return domain.Hotel{}, domain.Internal("get hotel", err)
	}
	if !blank(in.Name) {
		h.Name = *in.Name
	}
	if !blank(in.Address) {
		h.Address = *in.Address
	}
	h, err = s.store.UpdateHotel(ctx, h)
	if err != nil {
		return domain.Hotel{}, domain.Internal("update hotel", err)
	}
	s.invalidateHotel(ctx, id)
	log.Info().Str("component", "hotel").Int64("hotel_id", id).Msg("hotel updated")
	return h, nil
}

// DeleteHotel refuses while rooms or reservations still reference the hotel.
func (s *CatalogService) DeleteHotel(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		if _, err := tx.GetHotel(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Errorf(domain.ErrHotelNotFound, "hotel %d not found", id)
			}
			return domain.Internal("get hotel", err)
		}
		rooms, err := tx.ListRooms(ctx, domain.RoomFilter{HotelID: &id})
		if err != nil {
			return domain.Internal("list rooms", err)
		}
		if len(rooms) > 0 {
			return domain.Errorf(domain.ErrHotelInUse, "hotel %d still has %d rooms", id, len(rooms))
		}
		n, err := tx.CountReservations(ctx, domain.ReservationFilter{HotelID: &id})
		if err != nil {
			return domain.Internal("count reservations", err)
		}
		if n > 0 {
			return domain.Errorf(domain.ErrHotelInUse, "hotel %d still has %d reservations", id, n)
		}
		if err := tx.DeleteHotel(ctx, id); err != nil {
			return domain.Internal("delete hotel", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, hotelKey(id))
	}
	log.Info().Str("component", "hotel").Int64("hotel_id", id).Msg("hotel deleted")
	return nil
}

// invalidateHotel drops the hotel entry and every room entry embedding its summary.
func (s *CatalogService) invalidateHotel(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, hotelKey(id))
	rooms, err := s.store.ListRooms(ctx, domain.RoomFilter{HotelID: &id})
	if err != nil {
		log.Warn().Err(err).Int64("hotel_id", id).Msg("room cache invalidation skipped")
		return
	}
	for _, r := range rooms {
		_ = s.cache.Del(ctx, roomKey(r.ID))
	}
}

// ---- rooms ----

func (s *CatalogService) ListRooms(ctx context.Context, hotelID *int64) ([]domain.Room, error) {
	rs, err := s.store.ListRooms(ctx, domain.RoomFilter{HotelID: hotelID})
	if err != nil {
		return nil, domain.Internal("list rooms", err)
	}
	return rs, nil
}

func (s *CatalogService) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	var r domain.Room
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, roomKey(id), &r); ok {
			return r, nil
		}
	}
	r, err := s.store.GetRoom(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Room{}, domain.Errorf(domain.ErrRoomNotFound, "room %d not found", id)
	}
	if err != nil {
		return domain.Room{}, domain.Internal("get room", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, roomKey(id), r, s.ttlSec())
	}
	return r, nil
}

func (s *CatalogService) requireHotel(ctx context.Context, tx domain.Store, id int64) error {
	if _, err := tx.GetHotel(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrHotelNotFound, "hotel %d not found", id)
		}
		return domain.Internal("get hotel", err)
	}
	return nil
}

func validCapacity(c int) error {
	if c < 1 {
		return domain.Errorf(domain.ErrInvalidField, "capacity must be at least 1, got %d", c)
	}
	return nil
}

func (s *CatalogService) CreateRoom(ctx context.Context, in RoomInput) (domain.Room, error) {
	if blank(in.Number) || in.HotelID == nil || in.PositionX == nil || in.PositionY == nil ||
		blank(in.Floor) || in.Capacity == nil {
		return domain.Room{}, domain.Errorf(domain.ErrMissingFields,
			"number, hotelId, positionX, positionY, floor and capacity are required")
	}
	if err := validCapacity(*in.Capacity); err != nil {
		return domain.Room{}, err
	}
	if err := s.requireHotel(ctx, s.store, *in.HotelID); err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		Number:    *in.Number,
		HotelID:   *in.HotelID,
		PositionX: *in.PositionX,
		PositionY: *in.PositionY,
		Floor:     *in.Floor,
		Capacity:  *in.Capacity,
	}
	if in.Features != nil {
		room.Features = *in.Features
	}
	r, err := s.store.CreateRoom(ctx, room)
	if err != nil {
		return domain.Room{}, domain.Internal("create room", err)
	}
	log.Info().Str("component", "room").Int64("room_id", r.ID).Int64("hotel_id", r.HotelID).Msg("room created")
	return r, nil
}

// UpdateRoom overwrites the supplied fields and keeps the rest. A room with
// reservations cannot move to another hotel or shrink below its largest
// booked party.
func (s *CatalogService) UpdateRoom(ctx context.Context, id int64, in RoomInput) (domain.Room, error) {
	if in.Capacity != nil {
		if err := validCapacity(*in.Capacity); err != nil {
			return domain.Room{}, err
		}
	}
	var r domain.Room
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		var err error
		r, err = tx.LockRoom(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrRoomNotFound, "room %d not found", id)
		}
		if err != nil {
			return domain.Internal("lock room", err)
		}

		moving := in.HotelID != nil && *in.HotelID != r.HotelID
		shrinking := in.Capacity != nil && *in.Capacity < r.Capacity
		if moving || shrinking {
			booked, err := tx.ListReservations(ctx, domain.ReservationFilter{RoomID: &id})
			if err != nil {
				return domain.Internal("list reservations", err)
			}
			if moving && len(booked) > 0 {
				return domain.Errorf(domain.ErrRoomInUse,
					"room %d has %d reservations and cannot move to another hotel", id, len(booked))
			}
			if shrinking {
				largest := 0
				for _, b := range booked {
					largest = max(largest, b.GuestCount)
				}
				if *in.Capacity < largest {
					return domain.Errorf(domain.ErrRoomInUse,
						"room %d has a reservation for %d guests, capacity cannot drop to %d", id, largest, *in.Capacity)
				}
			}
		}

		if moving {
			if err := s.requireHotel(ctx, tx, *in.HotelID); err != nil {
				return err
			}
			r.HotelID = *in.HotelID
		}
		if !blank(in.Number) {
			r.Number = *in.Number
		}
		if in.PositionX != nil {
			r.PositionX = *in.PositionX
		}
		if in.PositionY != nil {
			r.PositionY = *in.PositionY
		}
		if !blank(in.Floor) {
			r.Floor = *in.Floor
		}
		if in.Capacity != nil {
			r.Capacity = *in.Capacity
		}
		if in.Features != nil {
			r.Features = *in.Features
		}
		if r, err = tx.UpdateRoom(ctx, r); err != nil {
			return domain.Internal("update room", err)
		}
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, roomKey(id))
	}
	log.Info().Str("component", "room").Int64("room_id", id).Msg("room updated")
	return r, nil
}

func (s *CatalogService) DeleteRoom(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		if _, err := tx.LockRoom(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Errorf(domain.ErrRoomNotFound, "room %d not found", id)
			}
			return domain.Internal("get room", err)
		}
		n, err := tx.CountReservations(ctx, domain.ReservationFilter{RoomID: &id})
		if err != nil {
			return domain.Internal("count reservations", err)
		}
		if n > 0 {
			return domain.Errorf(domain.ErrRoomInUse, "room %d still has %d reservations", id, n)
		}
		if err := tx.DeleteRoom(ctx, id); err != nil {
			return domain.Internal("delete room", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, roomKey(id))
	}
	log.Info().Str("component", "room").Int64("room_id", id).Msg("room deleted")
	return nil
}

// ---- customers ----

func (s *CatalogService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	cs, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, domain.Internal("list customers", err)
	}
	return cs, nil
}

func (s *CatalogService) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Customer{}, domain.Errorf(domain.ErrCustomerNotFound, "customer %d not found", id)
	}
	if err != nil {
		return domain.Customer{}, domain.Internal("get customer", err)
	}
	return c, nil
}

func (s *CatalogService) GetCustomerByNationalID(ctx context.Context, nationalID string) (domain.Customer, error) {
	c, err := s.store.FindCustomerByNationalID(ctx, nationalID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Customer{}, domain.Errorf(domain.ErrCustomerNotFound, "customer with nationalId %s not found", nationalID)
	}
	if err != nil {
		return domain.Customer{}, domain.Internal("find customer", err)
	}
	return c, nil
}

// CreateCustomer is the strict create: an existing national id is a conflict
// carrying the stored customer.
func (s *CatalogService) CreateCustomer(ctx context.Context, in CustomerInput) (domain.Customer, error) {
	if in.NationalID == "" || in.FirstName == "" || in.LastName == "" {
		return domain.Customer{}, domain.Errorf(domain.ErrMissingFields, "nationalId, firstName and lastName are required")
	}
	existing, err := s.store.FindCustomerByNationalID(ctx, in.NationalID)
	if err == nil {
		return domain.Customer{}, duplicateCustomer(existing)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Customer{}, domain.Internal("find customer", err)
	}

	c, err := s.store.CreateCustomer(ctx, domain.Customer{NationalID: in.NationalID, FirstName: in.FirstName, LastName: in.LastName})
	if errors.Is(err, domain.ErrDuplicate) {
		if existing, ferr := s.store.FindCustomerByNationalID(ctx, in.NationalID); ferr == nil {
			return domain.Customer{}, duplicateCustomer(existing)
		}
		return domain.Customer{}, domain.Errorf(domain.ErrDuplicateCustomer, "customer already exists with nationalId %s", in.NationalID)
	}
	if err != nil {
		return domain.Customer{}, domain.Internal("create customer", err)
	}
	log.Info().Str("component", "customer").Int64("customer_id", c.ID).Msg("customer created")
	return c, nil
}

func duplicateCustomer(existing domain.Customer) error {
	e := domain.Errorf(domain.ErrDuplicateCustomer, "customer already exists with nationalId %s", existing.NationalID)
	e.Existing = &existing
	return e
}
