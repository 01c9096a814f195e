package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_reservations/internal/adapters/observability"
	"hotel_reservations/internal/domain"
)

// ReservationEngine owns the booking workflow and the availability search.
type ReservationEngine struct {
	store  domain.Store
	newRef func() string
}

func NewReservationEngine(s domain.Store) *ReservationEngine {
	return &ReservationEngine{store: s, newRef: uuid.NewString}
}

type BookingRequest struct {
	HotelID    int64
	RoomID     int64
	NationalID string
	FirstName  string
	LastName   string
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
}

func (r BookingRequest) stay() domain.Stay { return domain.NewStay(r.CheckIn, r.CheckOut) }

func (r BookingRequest) validate() error {
	if r.HotelID == 0 || r.RoomID == 0 || r.NationalID == "" ||
		r.CheckIn.IsZero() || r.CheckOut.IsZero() || r.GuestCount == 0 {
		return domain.Errorf(domain.ErrMissingFields,
			"hotelId, roomId, nationalId, checkIn, checkOut and guestCount are required")
	}
	if r.GuestCount < 0 {
		return domain.Errorf(domain.ErrInvalidField, "guestCount must be a positive integer")
	}
	if !r.stay().Valid() {
		return domain.Errorf(domain.ErrInvalidStay, "checkIn must be before checkOut")
	}
	return nil
}

type AvailabilityQuery struct {
	HotelID     int64
	CheckIn     time.Time
	CheckOut    time.Time
	MinCapacity *int
}

type ReservationQuery struct {
	HotelID    *int64
	CheckIn    *time.Time
	CheckOut   *time.Time
	NationalID string
}

// errCustomerRace marks a lost race creating the same customer from two
// bookings; the whole transaction is retried once.
var errCustomerRace = errors.New("customer created concurrently")

// GetOrCreateCustomer upserts a customer by national id. Stored names are
// overwritten when the supplied ones differ (last write wins); empty names
// never overwrite.
func (e *ReservationEngine) GetOrCreateCustomer(ctx context.Context, nationalID, firstName, lastName string) (domain.Customer, error) {
	if nationalID == "" {
		return domain.Customer{}, domain.Errorf(domain.ErrMissingFields, "nationalId is required")
	}
	var out domain.Customer
	err := e.withRetry(ctx, func(tx domain.Store) error {
		c, err := getOrCreateCustomer(ctx, tx, nationalID, firstName, lastName)
		out = c
		return err
	})
	return out, err
}

func getOrCreateCustomer(ctx context.Context, s domain.Store, nationalID, firstName, lastName string) (domain.Customer, error) {
	c, err := s.FindCustomerByNationalID(ctx, nationalID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if firstName == "" || lastName == "" {
			return domain.Customer{}, domain.Errorf(domain.ErrMissingCustomerName, "firstName and lastName are required for a new customer")
		}
		log.Info().Str("component", "reservation").Str("national_id", nationalID).Msg("creating customer")
		c, err = s.CreateCustomer(ctx, domain.Customer{NationalID: nationalID, FirstName: firstName, LastName: lastName})
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Customer{}, errCustomerRace
		}
		if err != nil {
			return domain.Customer{}, domain.Internal("create customer", err)
		}
		return c, nil
	case err != nil:
		return domain.Customer{}, domain.Internal("find customer", err)
	}

	if firstName == "" || lastName == "" || c.SameName(firstName, lastName) {
		return c, nil
	}
	log.Info().Str("component", "reservation").Str("national_id", nationalID).Int64("customer_id", c.ID).Msg("updating customer names")
	c.FirstName, c.LastName = firstName, lastName
	c, err = s.UpdateCustomer(ctx, c)
	if err != nil {
		return domain.Customer{}, domain.Internal("update customer", err)
	}
	return c, nil
}

func (e *ReservationEngine) withRetry(ctx context.Context, fn func(tx domain.Store) error) error {
	err := e.store.InTx(ctx, fn)
	if errors.Is(err, errCustomerRace) {
		err = e.store.InTx(ctx, fn)
	}
	if errors.Is(err, errCustomerRace) {
		return domain.Errorf(domain.ErrDuplicateCustomer, "customer was created concurrently, retry the request")
	}
	return err
}

// CreateReservation books a room. Checks run in a fixed order and the first
// failure is returned: missing fields, hotel, room ownership, capacity,
// date conflict, customer names. The room row stays locked from the
// conflict check until the insert commits.
func (e *ReservationEngine) CreateReservation(ctx context.Context, req BookingRequest) (domain.ReservationView, error) {
	logger := log.With().Str("component", "reservation").Int64("hotel_id", req.HotelID).Int64("room_id", req.RoomID).Logger()
	logger.Info().Msg("creating reservation")

	if err := req.validate(); err != nil {
		logger.Warn().Err(err).Msg("rejected")
		observability.ObserveBooking("invalid")
		return domain.ReservationView{}, err
	}
	stay := req.stay()

	var id int64
	err := e.withRetry(ctx, func(tx domain.Store) error {
		if _, err := tx.GetHotel(ctx, req.HotelID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Errorf(domain.ErrHotelNotFound, "hotel %d not found", req.HotelID)
			}
			return domain.Internal("get hotel", err)
		}

		room, err := tx.LockRoom(ctx, req.RoomID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.Internal("lock room", err)
		}
		if err != nil || room.HotelID != req.HotelID {
			return domain.Errorf(domain.ErrRoomNotFound, "room %d not found or does not belong to hotel %d", req.RoomID, req.HotelID)
		}

		if room.Capacity < req.GuestCount {
			return domain.Errorf(domain.ErrCapacityExceeded,
				"room capacity (%d) is insufficient for the requested number of guests (%d)", room.Capacity, req.GuestCount)
		}

		n, err := tx.CountReservations(ctx, domain.ReservationFilter{RoomID: &req.RoomID, Overlapping: &stay})
		if err != nil {
			return domain.Internal("check conflicts", err)
		}
		if n > 0 {
			return domain.Errorf(domain.ErrDateConflict, "room %d is already booked between %s and %s",
				req.RoomID, domain.FormatDate(stay.CheckIn), domain.FormatDate(stay.CheckOut))
		}

		if req.FirstName == "" || req.LastName == "" {
			return domain.Errorf(domain.ErrMissingCustomerName, "customer firstName and lastName are required")
		}
		customer, err := getOrCreateCustomer(ctx, tx, req.NationalID, req.FirstName, req.LastName)
		if err != nil {
			return err
		}

		r, err := tx.CreateReservation(ctx, domain.Reservation{
			Reference:  e.newRef(),
			HotelID:    req.HotelID,
			RoomID:     req.RoomID,
			CustomerID: customer.ID,
			Stay:       stay,
			GuestCount: req.GuestCount,
		})
		if err != nil {
			return domain.Internal("create reservation", err)
		}
		id = r.ID
		return nil
	})
	if err != nil {
		outcome := bookingOutcome(err)
		observability.ObserveBooking(outcome)
		if outcome == "error" {
			logger.Error().Err(err).Msg("reservation failed")
			var de *domain.Error
			if !errors.As(err, &de) {
				err = domain.Internal("create reservation", err)
			}
		} else {
			logger.Warn().Err(err).Str("outcome", outcome).Msg("rejected")
		}
		return domain.ReservationView{}, err
	}

	v, err := e.store.GetReservation(ctx, id)
	if err != nil {
		observability.ObserveBooking("error")
		return domain.ReservationView{}, domain.Internal("load reservation", err)
	}
	observability.ObserveBooking("created")
	logger.Info().Int64("reservation_id", v.ID).Str("reference", v.Reference).Msg("reservation created")
	return v, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDateConflict):
		return "conflict"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity"
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return "not_found"
	case domain.KindValidation:
		return "invalid"
	case domain.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}

// FindAvailableRooms returns the hotel's rooms (optionally with at least
// MinCapacity beds) that have no reservation overlapping the stay, in store
// order. ok is false when no room matches the hotel and capacity at all,
// which is distinct from every matching room being booked.
func (e *ReservationEngine) FindAvailableRooms(ctx context.Context, q AvailabilityQuery) (rooms []domain.Room, ok bool, err error) {
	if q.HotelID == 0 || q.CheckIn.IsZero() || q.CheckOut.IsZero() {
		observability.ObserveAvailability("invalid")
		return nil, false, domain.Errorf(domain.ErrMissingFields, "hotelId, checkIn and checkOut are required")
	}
	stay := domain.NewStay(q.CheckIn, q.CheckOut)
	if !stay.Valid() {
		observability.ObserveAvailability("invalid")
		return nil, false, domain.Errorf(domain.ErrInvalidStay, "checkIn must be before checkOut")
	}

	all, err := e.store.ListRooms(ctx, domain.RoomFilter{HotelID: &q.HotelID, MinCapacity: q.MinCapacity})
	if err != nil {
		observability.ObserveAvailability("error")
		return nil, false, domain.Internal("list rooms", err)
	}
	if len(all) == 0 {
		log.Info().Str("component", "reservation").Int64("hotel_id", q.HotelID).Msg("no rooms match criteria")
		observability.ObserveAvailability("no_rooms")
		return nil, false, nil
	}

	booked, err := e.store.ListReservations(ctx, domain.ReservationFilter{HotelID: &q.HotelID, Overlapping: &stay})
	if err != nil {
		observability.ObserveAvailability("error")
		return nil, false, domain.Internal("list booked rooms", err)
	}
	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[b.RoomID] = struct{}{}
	}

	rooms = make([]domain.Room, 0, len(all))
	for _, r := range all {
		if _, ok := taken[r.ID]; !ok {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) == 0 {
		observability.ObserveAvailability("none_available")
	} else {
		observability.ObserveAvailability("rooms")
	}
	log.Info().Str("component", "reservation").Int64("hotel_id", q.HotelID).Int("available", len(rooms)).Msg("availability computed")
	return rooms, true, nil
}

// ListReservations applies the optional filters together. An unknown
// national id yields an empty list.
func (e *ReservationEngine) ListReservations(ctx context.Context, q ReservationQuery) ([]domain.ReservationView, error) {
	f := domain.ReservationFilter{HotelID: q.HotelID, CheckIn: q.CheckIn, CheckOut: q.CheckOut}
	if q.NationalID != "" {
		c, err := e.store.FindCustomerByNationalID(ctx, q.NationalID)
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.ReservationView{}, nil
		}
		if err != nil {
			return nil, domain.Internal("find customer", err)
		}
		f.CustomerID = &c.ID
	}
	out, err := e.store.ListReservations(ctx, f)
	if err != nil {
		return nil, domain.Internal("list reservations", err)
	}
	return out, nil
}

func (e *ReservationEngine) GetReservation(ctx context.Context, id int64) (domain.ReservationView, error) {
	v, err := e.store.GetReservation(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ReservationView{}, domain.Errorf(domain.ErrReservationNotFound, "reservation %d not found", id)
	}
	if err != nil {
		return domain.ReservationView{}, domain.Internal("get reservation", err)
	}
	return v, nil
}
