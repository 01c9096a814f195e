// Package hotelapi is a typed client for the reservation HTTP API, used by hotelctl.
package hotelapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_reservations/internal/adapters/observability"
	"hotel_reservations/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

// New builds a client for base, e.g. "http://localhost:8080/api".
func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Reservation is the wire shape of a booked stay.
type Reservation struct {
	ID         int64                  `json:"id"`
	Reference  string                 `json:"reference"`
	HotelID    int64                  `json:"hotelId"`
	RoomID     int64                  `json:"roomId"`
	CustomerID int64                  `json:"customerId"`
	CheckIn    string                 `json:"checkIn"`
	CheckOut   string                 `json:"checkOut"`
	Nights     int                    `json:"nights"`
	GuestCount int                    `json:"guestCount"`
	Hotel      domain.HotelSummary    `json:"hotel"`
	Room       domain.RoomSummary     `json:"room"`
	Customer   domain.CustomerSummary `json:"customer"`
}

type NewRoom struct {
	Number    string `json:"number"`
	HotelID   int64  `json:"hotelId"`
	PositionX int    `json:"positionX"`
	PositionY int    `json:"positionY"`
	Floor     string `json:"floor"`
	Capacity  int    `json:"capacity"`
	Features  string `json:"features,omitempty"`
}

type Booking struct {
	HotelID    int64  `json:"hotelId"`
	RoomID     int64  `json:"roomId"`
	NationalID string `json:"nationalId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	GuestCount int    `json:"guestCount"`
}

type ReservationFilter struct {
	HotelID    int64
	CheckIn    string
	CheckOut   string
	NationalID string
}

// ---- Public API ----

func (c *Client) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	return out, c.do(ctx, "list_hotels", http.MethodGet, "/hotels", nil, &out)
}

func (c *Client) CreateHotel(ctx context.Context, name, address string) (domain.Hotel, error) {
	var out domain.Hotel
	body := map[string]string{"name": name, "address": address}
	return out, c.do(ctx, "create_hotel", http.MethodPost, "/hotels", body, &out)
}

func (c *Client) CreateRoom(ctx context.Context, r NewRoom) (domain.Room, error) {
	var out domain.Room
	return out, c.do(ctx, "create_room", http.MethodPost, "/rooms", r, &out)
}

func (c *Client) ListRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	path := "/rooms"
	if hotelID > 0 {
		path += "?hotelId=" + strconv.FormatInt(hotelID, 10)
	}
	var out []domain.Room
	return out, c.do(ctx, "list_rooms", http.MethodGet, path, nil, &out)
}

func (c *Client) CreateReservation(ctx context.Context, b Booking) (Reservation, error) {
	var out Reservation
	return out, c.do(ctx, "create_reservation", http.MethodPost, "/reservations", b, &out)
}

// AvailableRooms returns ErrNoRooms when the hotel has no room matching the
// capacity at all; an empty slice means every matching room is booked.
func (c *Client) AvailableRooms(ctx context.Context, hotelID int64, checkIn, checkOut string, capacity int) ([]domain.Room, error) {
	q := url.Values{}
	q.Set("hotelId", strconv.FormatInt(hotelID, 10))
	q.Set("checkIn", checkIn)
	q.Set("checkOut", checkOut)
	if capacity > 0 {
		q.Set("capacity", strconv.Itoa(capacity))
	}
	var out []domain.Room
	err := c.do(ctx, "available_rooms", http.MethodGet, "/reservations/available?"+q.Encode(), nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound && apiErr.Message == "0" {
		return nil, ErrNoRooms
	}
	return out, err
}

func (c *Client) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	q := url.Values{}
	if f.HotelID > 0 {
		q.Set("hotelId", strconv.FormatInt(f.HotelID, 10))
	}
	if f.CheckIn != "" {
		q.Set("checkIn", f.CheckIn)
	}
	if f.CheckOut != "" {
		q.Set("checkOut", f.CheckOut)
	}
	if f.NationalID != "" {
		q.Set("nationalId", f.NationalID)
	}
	path := "/reservations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []Reservation
	return out, c.do(ctx, "list_reservations", http.MethodGet, path, nil, &out)
}

// ---- Errors ----

var (
	ErrNotFound   = errors.New("hotelapi: not found")
	ErrConflict   = errors.New("hotelapi: conflict")
	ErrBadRequest = errors.New("hotelapi: bad request")
	ErrNoRooms    = errors.New("hotelapi: no rooms match the criteria")
)

// APIError carries the status and the server's message; errors.Is matches
// it against ErrNotFound, ErrConflict and ErrBadRequest by status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("api %d: %s", e.Status, e.Message) }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	}
	return false
}

func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(b))
	var m struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &m) == nil && m.Message != "" {
		msg = m.Message
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// ---- Internals ----

// do sends one call with client-side rate limiting and JSON in/out.
// 429 is retried for every method since the server did no work; network
// errors and 5xx are retried for GET only so a booking is never sent twice.
// Retry-After is honoured when present.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", endpoint, err)
		}
		payload = b
	}
	idempotent := method == http.MethodGet

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotelctl/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveClient(endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if idempotent && i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveClient(endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests,
			idempotent && resp.StatusCode >= 500:
			wait := retryAfter(resp)
			lastErr = apiError(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			err := apiError(resp)
			resp.Body.Close()
			return err
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
