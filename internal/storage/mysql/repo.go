package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"hotel_reservations/internal/domain"
)

const errDupEntry = 1062

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Repo implements domain.Store on database/sql. A Repo created by InTx has a
// nil db and runs every statement on the transaction.
type Repo struct {
	db *sql.DB
	q  querier
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

func (r *Repo) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if r.db == nil {
		return fn(r)
	}
	// READ COMMITTED: reads after a room lock wait must see the holder's commit
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Repo{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isDuplicate(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

func lastID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- hotels ----

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	err := s.Scan(&h.ID, &h.Name, &h.Address, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.q.QueryRowContext(ctx, selectHotelSQL+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.q.QueryContext(ctx, selectHotelSQL+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	res, err := r.q.ExecContext(ctx, insertHotelSQL, h.Name, h.Address)
	if err != nil {
		return domain.Hotel{}, err
	}
	id, err := lastID(res)
	if err != nil {
		return domain.Hotel{}, err
	}
	return r.GetHotel(ctx, id)
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	if _, err := r.q.ExecContext(ctx, updateHotelSQL, h.Name, h.Address, h.ID); err != nil {
		return domain.Hotel{}, err
	}
	// RowsAffected is 0 when values are unchanged, so re-read to detect absence.
	return r.GetHotel(ctx, h.ID)
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM hotels WHERE id = ?", id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// ---- rooms ----

func scanRoom(s scanner) (domain.Room, error) {
	var (
		rm       domain.Room
		features sql.NullString
		hs       domain.HotelSummary
	)
	if err := s.Scan(
		&rm.ID, &rm.Number, &rm.HotelID, &rm.PositionX, &rm.PositionY, &rm.Floor, &rm.Capacity, &features,
		&rm.CreatedAt, &rm.UpdatedAt,
		&hs.Name, &hs.Address,
	); err != nil {
		return domain.Room{}, err
	}
	if features.Valid {
		rm.Features = features.String
	}
	rm.Hotel = &hs
	return rm, nil
}

func (r *Repo) getRoom(ctx context.Context, id int64, lock bool) (domain.Room, error) {
	q := selectRoomSQL + " WHERE r.id = ?"
	if lock {
		q += " FOR UPDATE"
	}
	rm, err := scanRoom(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Room{}, domain.ErrNotFound
		}
		return domain.Room{}, err
	}
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	return r.getRoom(ctx, id, false)
}

func (r *Repo) LockRoom(ctx context.Context, id int64) (domain.Room, error) {
	return r.getRoom(ctx, id, true)
}

func (r *Repo) ListRooms(ctx context.Context, f domain.RoomFilter) ([]domain.Room, error) {
	var (
		where []string
		args  []any
	)
	if f.HotelID != nil {
		where = append(where, "r.hotel_id = ?")
		args = append(args, *f.HotelID)
	}
	if f.MinCapacity != nil {
		where = append(where, "r.capacity >= ?")
		args = append(args, *f.MinCapacity)
	}
	q := selectRoomSQL
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.id"

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	res, err := r.q.ExecContext(ctx, insertRoomSQL,
		rm.Number, rm.HotelID, rm.PositionX, rm.PositionY, rm.Floor, rm.Capacity, valStr(rm.Features))
	if err != nil {
		return domain.Room{}, err
	}
	id, err := lastID(res)
	if err != nil {
		return domain.Room{}, err
	}
	return r.GetRoom(ctx, id)
}

func (r *Repo) UpdateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	if _, err := r.q.ExecContext(ctx, updateRoomSQL,
		rm.Number, rm.HotelID, rm.PositionX, rm.PositionY, rm.Floor, rm.Capacity, valStr(rm.Features), rm.ID,
	); err != nil {
		return domain.Room{}, err
	}
	return r.GetRoom(ctx, rm.ID)
}

func (r *Repo) DeleteRoom(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// ---- customers ----

func scanCustomer(s scanner) (domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(&c.ID, &c.NationalID, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) customerWhere(ctx context.Context, cond string, arg any) (domain.Customer, error) {
	c, err := scanCustomer(r.q.QueryRowContext(ctx, selectCustomerSQL+" WHERE "+cond, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Customer{}, domain.ErrNotFound
		}
		return domain.Customer{}, err
	}
	return c, nil
}

func (r *Repo) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	return r.customerWhere(ctx, "id = ?", id)
}

func (r *Repo) FindCustomerByNationalID(ctx context.Context, nationalID string) (domain.Customer, error) {
	return r.customerWhere(ctx, "national_id = ?", nationalID)
}

func (r *Repo) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.q.QueryContext(ctx, selectCustomerSQL+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	res, err := r.q.ExecContext(ctx, insertCustomerSQL, c.NationalID, c.FirstName, c.LastName)
	if err != nil {
		if isDuplicate(err) {
			return domain.Customer{}, domain.ErrDuplicate
		}
		return domain.Customer{}, err
	}
	id, err := lastID(res)
	if err != nil {
		return domain.Customer{}, err
	}
	return r.GetCustomer(ctx, id)
}

func (r *Repo) UpdateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if _, err := r.q.ExecContext(ctx, updateCustomerSQL, c.FirstName, c.LastName, c.ID); err != nil {
		return domain.Customer{}, err
	}
	return r.GetCustomer(ctx, c.ID)
}

// ---- reservations ----

func scanReservation(s scanner) (domain.ReservationView, error) {
	var (
		v        domain.ReservationView
		features sql.NullString
	)
	if err := s.Scan(
		&v.ID, &v.Reference, &v.HotelID, &v.RoomID, &v.CustomerID,
		&v.Stay.CheckIn, &v.Stay.CheckOut, &v.GuestCount, &v.CreatedAt,
		&v.Hotel.Name, &v.Hotel.Address,
		&v.Room.Number, &v.Room.Floor, &v.Room.Capacity, &features,
		&v.Customer.NationalID, &v.Customer.FirstName, &v.Customer.LastName,
	); err != nil {
		return domain.ReservationView{}, err
	}
	if features.Valid {
		v.Room.Features = features.String
	}
	v.Stay = domain.NewStay(v.Stay.CheckIn, v.Stay.CheckOut)
	return v, nil
}

// reservationWhere renders f as a WHERE clause over the rs alias.
func reservationWhere(f domain.ReservationFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.HotelID != nil {
		where = append(where, "rs.hotel_id = ?")
		args = append(args, *f.HotelID)
	}
	if f.RoomID != nil {
		where = append(where, "rs.room_id = ?")
		args = append(args, *f.RoomID)
	}
	if f.CustomerID != nil {
		where = append(where, "rs.customer_id = ?")
		args = append(args, *f.CustomerID)
	}
	if f.CheckIn != nil {
		where = append(where, "rs.check_in = ?")
		args = append(args, f.CheckIn.Format(domain.DateLayout))
	}
	if f.CheckOut != nil {
		where = append(where, "rs.check_out = ?")
		args = append(args, f.CheckOut.Format(domain.DateLayout))
	}
	if f.Overlapping != nil {
		// [a1,a2) and [b1,b2) intersect iff a1 < b2 AND b1 < a2
		where = append(where, "rs.check_in < ? AND ? < rs.check_out")
		args = append(args,
			f.Overlapping.CheckOut.Format(domain.DateLayout),
			f.Overlapping.CheckIn.Format(domain.DateLayout))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *Repo) GetReservation(ctx context.Context, id int64) (domain.ReservationView, error) {
	v, err := scanReservation(r.q.QueryRowContext(ctx, selectReservationSQL+" WHERE rs.id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ReservationView{}, domain.ErrNotFound
		}
		return domain.ReservationView{}, err
	}
	return v, nil
}

func (r *Repo) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.ReservationView, error) {
	where, args := reservationWhere(f)
	rows, err := r.q.QueryContext(ctx, selectReservationSQL+where+orderReservationsSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ReservationView{}
	for rows.Next() {
		v, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repo) CountReservations(ctx context.Context, f domain.ReservationFilter) (int64, error) {
	where, args := reservationWhere(f)
	var n int64
	err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations rs"+where, args...).Scan(&n)
	return n, err
}

func (r *Repo) CreateReservation(ctx context.Context, rs domain.Reservation) (domain.Reservation, error) {
	res, err := r.q.ExecContext(ctx, insertReservationSQL,
		rs.Reference, rs.HotelID, rs.RoomID, rs.CustomerID,
		rs.Stay.CheckIn.Format(domain.DateLayout), rs.Stay.CheckOut.Format(domain.DateLayout),
		rs.GuestCount,
	)
	if err != nil {
		if isDuplicate(err) {
			return domain.Reservation{}, domain.ErrDuplicate
		}
		return domain.Reservation{}, err
	}
	id, err := lastID(res)
	if err != nil {
		return domain.Reservation{}, err
	}
	v, err := r.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return v.Reservation, nil
}

var _ domain.Store = (*Repo)(nil)
