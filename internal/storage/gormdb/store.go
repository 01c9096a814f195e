package gormdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"hotel_reservations/internal/domain"
)

// zerologWriter routes gorm's logger through the global zerolog logger.
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// Open connects with the given dialect: postgres, sqlite or mysql.
func Open(dialect, dsn string) (*gorm.DB, error) {
	var d gorm.Dialector
	switch dialect {
	case "postgres":
		d = postgres.Open(dsn)
	case "sqlite":
		d = sqlite.Open(dsn)
	case "mysql":
		d = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zerologWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dialect == "sqlite" {
		// one connection: sqlite has a single writer and :memory: is per-connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels()...)
}

// Store implements domain.Store on gorm.
type Store struct {
	db   *gorm.DB
	inTx bool
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	// READ COMMITTED on server databases: reads after a room lock wait must
	// see the holder's commit. sqlite serializes writers on its single connection.
	var opts []*sql.TxOptions
	if s.db.Dialector.Name() != "sqlite" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	}, opts...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "duplicate") || strings.Contains(low, "unique constraint")
}

func deleted(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- hotels ----

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var m hotelModel
	if err := s.db.WithContext(ctx).Take(&m, id).Error; err != nil {
		return domain.Hotel{}, notFound(err)
	}
	return m.toDomain(), nil
}

func (s *Store) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var ms []hotelModel
	if err := s.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Hotel, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	m := hotelModel{Name: h.Name, Address: h.Address}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Hotel{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	if _, err := s.GetHotel(ctx, h.ID); err != nil {
		return domain.Hotel{}, err
	}
	if err := s.db.WithContext(ctx).Model(&hotelModel{ID: h.ID}).
		Updates(map[string]any{"name": h.Name, "address": h.Address}).Error; err != nil {
		return domain.Hotel{}, err
	}
	return s.GetHotel(ctx, h.ID)
}

func (s *Store) DeleteHotel(ctx context.Context, id int64) error {
	return deleted(s.db.WithContext(ctx).Delete(&hotelModel{}, id))
}

// ---- rooms ----

func (s *Store) roomQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("rooms r").
		Select("r.*, h.name AS hotel_name, h.address AS hotel_address").
		Joins("JOIN hotels h ON h.id = r.hotel_id")
}

func (s *Store) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	var rows []roomRow
	if err := s.roomQuery(ctx).Where("r.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return domain.Room{}, err
	}
	if len(rows) == 0 {
		return domain.Room{}, domain.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (s *Store) LockRoom(ctx context.Context, id int64) (domain.Room, error) {
	var m RoomModel
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&m, id).Error; err != nil {
		return domain.Room{}, notFound(err)
	}
	return s.GetRoom(ctx, id)
}

func (s *Store) ListRooms(ctx context.Context, f domain.RoomFilter) ([]domain.Room, error) {
	q := s.roomQuery(ctx)
	if f.HotelID != nil {
		q = q.Where("r.hotel_id = ?", *f.HotelID)
	}
	if f.MinCapacity != nil {
		q = q.Where("r.capacity >= ?", *f.MinCapacity)
	}
	var rows []roomRow
	if err := q.Order("r.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func roomFromDomain(r domain.Room) RoomModel {
	return RoomModel{
		ID:        r.ID,
		Number:    r.Number,
		HotelID:   r.HotelID,
		PositionX: r.PositionX,
		PositionY: r.PositionY,
		Floor:     r.Floor,
		Capacity:  r.Capacity,
		Features:  r.Features,
	}
}

func (s *Store) CreateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	m := roomFromDomain(r)
	m.ID = 0
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Room{}, err
	}
	return s.GetRoom(ctx, m.ID)
}

func (s *Store) UpdateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	if _, err := s.GetRoom(ctx, r.ID); err != nil {
		return domain.Room{}, err
	}
	m := roomFromDomain(r)
	if err := s.db.WithContext(ctx).Model(&RoomModel{ID: r.ID}).Updates(map[string]any{
		"number":     m.Number,
		"hotel_id":   m.HotelID,
		"position_x": m.PositionX,
		"position_y": m.PositionY,
		"floor":      m.Floor,
		"capacity":   m.Capacity,
		"features":   m.Features,
	}).Error; err != nil {
		return domain.Room{}, err
	}
	return s.GetRoom(ctx, r.ID)
}

func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	return deleted(s.db.WithContext(ctx).Delete(&RoomModel{}, id))
}

// ---- customers ----

func (s *Store) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	var m customerModel
	if err := s.db.WithContext(ctx).Take(&m, id).Error; err != nil {
		return domain.Customer{}, notFound(err)
	}
	return m.toDomain(), nil
}

func (s *Store) FindCustomerByNationalID(ctx context.Context, nationalID string) (domain.Customer, error) {
	var m customerModel
	if err := s.db.WithContext(ctx).Where("national_id = ?", nationalID).Take(&m).Error; err != nil {
		return domain.Customer{}, notFound(err)
	}
	return m.toDomain(), nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var ms []customerModel
	if err := s.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	m := customerModel{NationalID: c.NationalID, FirstName: c.FirstName, LastName: c.LastName}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return domain.Customer{}, domain.ErrDuplicate
		}
		return domain.Customer{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if _, err := s.GetCustomer(ctx, c.ID); err != nil {
		return domain.Customer{}, err
	}
	if err := s.db.WithContext(ctx).Model(&customerModel{ID: c.ID}).
		Updates(map[string]any{"first_name": c.FirstName, "last_name": c.LastName}).Error; err != nil {
		return domain.Customer{}, err
	}
	return s.GetCustomer(ctx, c.ID)
}

// ---- reservations ----

func (s *Store) reservationQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("reservations rs").
		Select(`rs.*,
			h.name AS hotel_name, h.address AS hotel_address,
			r.number AS room_number, r.floor AS room_floor, r.capacity AS room_capacity, r.features AS room_features,
			c.national_id AS customer_national_id, c.first_name AS customer_first_name, c.last_name AS customer_last_name`).
		Joins("JOIN hotels h ON h.id = rs.hotel_id").
		Joins("JOIN rooms r ON r.id = rs.room_id").
		Joins("JOIN customers c ON c.id = rs.customer_id")
}

func applyReservationFilter(q *gorm.DB, f domain.ReservationFilter) *gorm.DB {
	if f.HotelID != nil {
		q = q.Where("rs.hotel_id = ?", *f.HotelID)
	}
	if f.RoomID != nil {
		q = q.Where("rs.room_id = ?", *f.RoomID)
	}
	if f.CustomerID != nil {
		q = q.Where("rs.customer_id = ?", *f.CustomerID)
	}
	if f.CheckIn != nil {
		q = q.Where("rs.check_in = ?", datatypes.Date(*f.CheckIn))
	}
	if f.CheckOut != nil {
		q = q.Where("rs.check_out = ?", datatypes.Date(*f.CheckOut))
	}
	if o := f.Overlapping; o != nil {
		q = q.Where("rs.check_in < ? AND ? < rs.check_out", datatypes.Date(o.CheckOut), datatypes.Date(o.CheckIn))
	}
	return q
}

func (s *Store) GetReservation(ctx context.Context, id int64) (domain.ReservationView, error) {
	var rows []reservationRow
	if err := s.reservationQuery(ctx).Where("rs.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return domain.ReservationView{}, err
	}
	if len(rows) == 0 {
		return domain.ReservationView{}, domain.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (s *Store) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.ReservationView, error) {
	var rows []reservationRow
	err := applyReservationFilter(s.reservationQuery(ctx), f).
		Order("rs.check_in ASC, r.floor ASC, r.number ASC, rs.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReservationView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CountReservations(ctx context.Context, f domain.ReservationFilter) (int64, error) {
	var n int64
	err := applyReservationFilter(s.db.WithContext(ctx).Table("reservations rs"), f).Count(&n).Error
	return n, err
}

func (s *Store) CreateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	m := ReservationModel{
		Reference:  r.Reference,
		HotelID:    r.HotelID,
		RoomID:     r.RoomID,
		CustomerID: r.CustomerID,
		CheckIn:    datatypes.Date(r.Stay.CheckIn),
		CheckOut:   datatypes.Date(r.Stay.CheckOut),
		GuestCount: r.GuestCount,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return domain.Reservation{}, domain.ErrDuplicate
		}
		return domain.Reservation{}, err
	}
	return m.toDomain(), nil
}

var _ domain.Store = (*Store)(nil)
