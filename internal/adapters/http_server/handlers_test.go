package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	httpserver "hotel_reservations/internal/adapters/http_server"
	"hotel_reservations/internal/app"
	"hotel_reservations/internal/storage/gormdb"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := gormdb.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := gormdb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := gormdb.New(db)

	srv := httpserver.New(httpserver.Options{RequestTimeout: 5 * time.Second})
	srv.MountHandlers("/api", &httpserver.Handlers{
		Catalog: app.NewCatalogService(store, nil, 0),
		Engine:  app.NewReservationEngine(store),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, rd)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	return res, buf.Bytes()
}

func decodeInto(t *testing.T, b []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("decode %q: %v", b, err)
	}
}

type idBody struct {
	ID int64 `json:"id"`
}

type msgBody struct {
	Message string `json:"message"`
}

func seedHotelAndRoom(t *testing.T, base string) (hotelID, roomID int64) {
	t.Helper()
	res, b := do(t, http.MethodPost, base+"/api/hotels", map[string]any{"name": "Hotel Sol", "address": "Av. 1"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create hotel: %d %s", res.StatusCode, b)
	}
	var h idBody
	decodeInto(t, b, &h)

	res, b = do(t, http.MethodPost, base+"/api/rooms", map[string]any{
		"number": "101", "hotelId": h.ID, "positionX": 1, "positionY": 2, "floor": "1", "capacity": 2,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create room: %d %s", res.StatusCode, b)
	}
	var r idBody
	decodeInto(t, b, &r)
	return h.ID, r.ID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	res, b := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if res.StatusCode != 200 || string(b) != "ok" {
		t.Fatalf("healthz: %d %q", res.StatusCode, b)
	}
}

func TestBookingFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	hotelID, roomID := seedHotelAndRoom(t, ts.URL)

	book := func(in, out string, guests int) (*http.Response, []byte) {
		return do(t, http.MethodPost, ts.URL+"/api/reservations", map[string]any{
			"hotelId": hotelID, "roomId": roomID, "nationalId": "V123",
			"firstName": "Ana", "lastName": "Diaz",
			"checkIn": in, "checkOut": out, "guestCount": guests,
		})
	}

	res, b := book("2024-06-01", "2024-06-05", 2)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("first booking: %d %s", res.StatusCode, b)
	}
	var created struct {
		ID       int64  `json:"id"`
		CheckIn  string `json:"checkIn"`
		Nights   int    `json:"nights"`
		Room     struct{ Number string } `json:"room"`
		Customer struct {
			NationalID string `json:"nationalId"`
		} `json:"customer"`
	}
	decodeInto(t, b, &created)
	if created.CheckIn != "2024-06-01" || created.Nights != 4 || created.Room.Number != "101" || created.Customer.NationalID != "V123" {
		t.Fatalf("unexpected reservation: %s", b)
	}

	res, b = book("2024-06-03", "2024-06-07", 2)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("overlap must be 409, got %d %s", res.StatusCode, b)
	}
	res, b = book("2024-06-05", "2024-06-08", 2)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("touching stay must succeed, got %d %s", res.StatusCode, b)
	}

	res, b = book("2024-07-01", "2024-07-02", 3)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("capacity exceeded must be 400, got %d %s", res.StatusCode, b)
	}
	var m msgBody
	decodeInto(t, b, &m)
	if !strings.Contains(m.Message, "2") || !strings.Contains(m.Message, "3") {
		t.Fatalf("capacity message should echo both values: %q", m.Message)
	}

	res, b = book("junk", "2024-07-02", 1)
	m = msgBody{}
	decodeInto(t, b, &m)
	if res.StatusCode != http.StatusBadRequest || !strings.Contains(m.Message, "checkIn must be a date") {
		t.Fatalf("bad date must be 400, got %d %s", res.StatusCode, b)
	}

	// missing fields are reported before a malformed date
	res, b = do(t, http.MethodPost, ts.URL+"/api/reservations", map[string]any{
		"hotelId": hotelID, "nationalId": "V123", "checkIn": "junk", "checkOut": "2024-07-02", "guestCount": 1,
	})
	m = msgBody{}
	decodeInto(t, b, &m)
	if res.StatusCode != http.StatusBadRequest || !strings.Contains(m.Message, "are required") {
		t.Fatalf("incomplete body must report missing fields, got %d %s", res.StatusCode, b)
	}

	res, b = do(t, http.MethodGet, ts.URL+"/api/reservations?nationalId=V123", nil)
	var list []idBody
	decodeInto(t, b, &list)
	if res.StatusCode != 200 || len(list) != 2 {
		t.Fatalf("list: %d %s", res.StatusCode, b)
	}

	res, b = do(t, http.MethodGet, ts.URL+"/api/reservations?nationalId=nobody", nil)
	if res.StatusCode != 200 || strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("unknown customer should give []: %d %s", res.StatusCode, b)
	}

	res, _ = do(t, http.MethodGet, ts.URL+"/api/reservations/999", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing reservation: %d", res.StatusCode)
	}
}

func TestAvailableRoomsResponses(t *testing.T) {
	ts := newTestServer(t)
	hotelID, roomID := seedHotelAndRoom(t, ts.URL)
	url := func(q string) string {
		return ts.URL + "/api/reservations/available?hotelId=" + itoa(hotelID) + q
	}

	res, b := do(t, http.MethodGet, url("&checkIn=2024-06-01&checkOut=2024-06-05"), nil)
	var rooms []idBody
	decodeInto(t, b, &rooms)
	if res.StatusCode != 200 || len(rooms) != 1 || rooms[0].ID != roomID {
		t.Fatalf("expected the room to be free: %d %s", res.StatusCode, b)
	}

	res, b = do(t, http.MethodGet, url("&checkIn=2024-06-01&checkOut=2024-06-05&capacity=9"), nil)
	if res.StatusCode != http.StatusNotFound || string(b) != "0" {
		t.Fatalf("no matching rooms must be 404 with body 0, got %d %q", res.StatusCode, b)
	}

	res, b = do(t, http.MethodGet, url("&checkIn=2024-06-01&checkOut=2024-06-05&capacity=0"), nil)
	rooms = nil
	decodeInto(t, b, &rooms)
	if res.StatusCode != 200 || len(rooms) != 1 {
		t.Fatalf("capacity 0 applies no filter: %d %s", res.StatusCode, b)
	}

	res, b = do(t, http.MethodGet, url("&checkIn=2024-06-01&checkOut=2024-06-05&capacity=abc"), nil)
	var msg msgBody
	decodeInto(t, b, &msg)
	if res.StatusCode != http.StatusBadRequest || !strings.Contains(msg.Message, "capacity") {
		t.Fatalf("malformed capacity must be a 400 message, got %d %s", res.StatusCode, b)
	}

	do(t, http.MethodPost, ts.URL+"/api/reservations", map[string]any{
		"hotelId": hotelID, "roomId": roomID, "nationalId": "V1", "firstName": "A", "lastName": "B",
		"checkIn": "2024-06-02", "checkOut": "2024-06-03", "guestCount": 1,
	})
	res, b = do(t, http.MethodGet, url("&checkIn=2024-06-01&checkOut=2024-06-05"), nil)
	if res.StatusCode != 200 || strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("fully booked hotel gives an empty list: %d %s", res.StatusCode, b)
	}

	res, _ = do(t, http.MethodGet, url(""), nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing dates must be 400, got %d", res.StatusCode)
	}
}

func TestCustomerEndpoints(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"nationalId": "V9", "firstName": "Ana", "lastName": "Diaz"}

	res, b := do(t, http.MethodPost, ts.URL+"/api/customers", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", res.StatusCode, b)
	}
	var c idBody
	decodeInto(t, b, &c)

	res, b = do(t, http.MethodPost, ts.URL+"/api/customers", body)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate must be 409, got %d", res.StatusCode)
	}
	var dup struct {
		Message  string `json:"message"`
		Customer idBody `json:"customer"`
	}
	decodeInto(t, b, &dup)
	if dup.Message == "" || dup.Customer.ID != c.ID {
		t.Fatalf("duplicate body should carry the stored customer: %s", b)
	}

	res, b = do(t, http.MethodGet, ts.URL+"/api/customers/nationalId/V9", nil)
	if res.StatusCode != 200 {
		t.Fatalf("by national id: %d %s", res.StatusCode, b)
	}
	res, _ = do(t, http.MethodGet, ts.URL+"/api/customers/abc", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-numeric id must be 400, got %d", res.StatusCode)
	}
}

func TestHotelAndRoomEndpoints(t *testing.T) {
	ts := newTestServer(t)
	hotelID, roomID := seedHotelAndRoom(t, ts.URL)

	res, b := do(t, http.MethodGet, ts.URL+"/api/hotels/"+itoa(hotelID), nil)
	etag := res.Header.Get("ETag")
	if res.StatusCode != 200 || etag == "" {
		t.Fatalf("get hotel: %d %s", res.StatusCode, b)
	}
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/hotels/"+itoa(hotelID), nil)
	req.Header.Set("If-None-Match", etag)
	nm, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	nm.Body.Close()
	if nm.StatusCode != http.StatusNotModified {
		t.Fatalf("want 304, got %d", nm.StatusCode)
	}

	res, b = do(t, http.MethodPut, ts.URL+"/api/rooms/"+itoa(roomID), map[string]any{"features": "balcony"})
	var room struct {
		Number   string `json:"number"`
		Features string `json:"features"`
		Hotel    struct {
			Name string `json:"name"`
		} `json:"hotel"`
	}
	decodeInto(t, b, &room)
	if res.StatusCode != 200 || room.Number != "101" || room.Features != "balcony" || room.Hotel.Name != "Hotel Sol" {
		t.Fatalf("update room: %d %s", res.StatusCode, b)
	}

	res, _ = do(t, http.MethodDelete, ts.URL+"/api/hotels/"+itoa(hotelID), nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("hotel with rooms must not be deleted, got %d", res.StatusCode)
	}
	res, b = do(t, http.MethodDelete, ts.URL+"/api/rooms/"+itoa(roomID), nil)
	var m msgBody
	decodeInto(t, b, &m)
	if res.StatusCode != 200 || m.Message == "" {
		t.Fatalf("delete room: %d %s", res.StatusCode, b)
	}
	res, _ = do(t, http.MethodGet, ts.URL+"/api/rooms/"+itoa(roomID), nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted room: %d", res.StatusCode)
	}

	res, _ = do(t, http.MethodPost, ts.URL+"/api/hotels", map[string]any{"name": "x"})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing address must be 400, got %d", res.StatusCode)
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
