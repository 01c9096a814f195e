package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_reservations/internal/app"
	"hotel_reservations/internal/domain"
)

type Handlers struct {
	Catalog *app.CatalogService
	Engine  *app.ReservationEngine
}

// MountHandlers registers the four resource groups under base (e.g. "/api")
// and the health probe at the root.
func (s *Server) MountHandlers(base string, h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	routes := func(r chi.Router) {
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.listHotels)
			r.Post("/", h.createHotel)
			r.Get("/{id}", h.getHotel)
			r.Put("/{id}", h.updateHotel)
			r.Delete("/{id}", h.deleteHotel)
		})
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.listRooms)
			r.Post("/", h.createRoom)
			r.Get("/{id}", h.getRoom)
			r.Put("/{id}", h.updateRoom)
			r.Delete("/{id}", h.deleteRoom)
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Get("/nationalId/{nationalId}", h.getCustomerByNationalID)
			r.Get("/{id}", h.getCustomer)
		})
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.listReservations)
			r.Post("/", h.createReservation)
			r.Get("/available", h.availableRooms)
			r.Get("/{id}", h.getReservation)
		})
	}
	if base = strings.TrimRight(base, "/"); base == "" {
		s.mux.Group(routes)
	} else {
		s.mux.Route(base, routes)
	}
}

// ---- response helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	var de *domain.Error
	if errors.As(err, &de) && de.Existing != nil {
		writeJSON(w, status, duplicateCustomerBody{Message: de.Message, Customer: de.Existing})
		return
	}
	writeMessage(w, status, err.Error())
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCacheable serves single-resource reads with a weak ETag and honours If-None-Match.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

// ---- request helpers ----

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Errorf(domain.ErrInvalidField, "id must be a positive integer")
	}
	return id, nil
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Errorf(domain.ErrInvalidField, "invalid JSON body: %v", err)
	}
	return nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidField, "%s must be an integer", name)
	}
	return &v, nil
}

func parseDateField(name, s string) (time.Time, error) {
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, domain.Errorf(domain.ErrInvalidField, "%s must be a date (YYYY-MM-DD)", name)
	}
	return t, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	t, err := parseDateField(name, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Catalog.ListHotels(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hotel, err := h.Catalog.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, hotel)
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in app.HotelInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	hotel, err := h.Catalog.CreateHotel(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in app.HotelInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	hotel, err := h.Catalog.UpdateHotel(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteHotel(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "hotel deleted")
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	hotelID, err := queryInt64(r, "hotelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rooms, err := h.Catalog.ListRooms(r.Context(), hotelID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Catalog.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, room)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var in app.RoomInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Catalog.CreateRoom(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in app.RoomInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Catalog.UpdateRoom(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteRoom(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "room deleted")
}

// ---- customers ----

func (h *Handlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Catalog.ListCustomers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Catalog.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) getCustomerByNationalID(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.GetCustomerByNationalID(r.Context(), chi.URLParam(r, "nationalId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in app.CustomerInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Catalog.CreateCustomer(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ---- reservations ----

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	var (
		q   app.ReservationQuery
		err error
	)
	if q.HotelID, err = queryInt64(r, "hotelId"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.CheckIn, err = queryDate(r, "checkIn"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.CheckOut, err = queryDate(r, "checkOut"); err != nil {
		writeError(w, r, err)
		return
	}
	q.NationalID = r.URL.Query().Get("nationalId")

	out, err := h.Engine.ListReservations(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTOs(out))
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Engine.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(v))
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Engine.CreateReservation(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(v))
}

// availableRooms answers 404 with a bare 0 when no room of the hotel matches
// the capacity at all, and 200 with a possibly empty list otherwise.
func (h *Handlers) availableRooms(w http.ResponseWriter, r *http.Request) {
	var q app.AvailabilityQuery
	hotelID, err := queryInt64(r, "hotelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if hotelID != nil {
		q.HotelID = *hotelID
	}
	in, err := queryDate(r, "checkIn")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := queryDate(r, "checkOut")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if in != nil {
		q.CheckIn = *in
	}
	if out != nil {
		q.CheckOut = *out
	}
	// capacity 0 means no capacity filter
	if s := r.URL.Query().Get("capacity"); s != "" {
		c, err := strconv.Atoi(s)
		if err != nil || c < 0 {
			writeError(w, r, domain.Errorf(domain.ErrInvalidField, "capacity must be a non-negative integer, got %q", s))
			return
		}
		if c > 0 {
			q.MinCapacity = &c
		}
	}

	rooms, ok, err := h.Engine.FindAvailableRooms(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("0"))
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}
