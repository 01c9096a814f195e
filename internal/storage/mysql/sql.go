package mysql

const insertHotelSQL = `
INSERT INTO hotels (name, address)
VALUES (?, ?)
`

const updateHotelSQL = `
UPDATE hotels
SET name = ?, address = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const selectHotelSQL = `
SELECT id, name, address, created_at, updated_at
FROM hotels
`

const insertRoomSQL = `
INSERT INTO rooms
  (number, hotel_id, position_x, position_y, floor, capacity, features)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

const updateRoomSQL = `
UPDATE rooms
SET number     = ?,
    hotel_id   = ?,
    position_x = ?,
    position_y = ?,
    floor      = ?,
    capacity   = ?,
    features   = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

// Rooms are always read with the owning hotel's summary.
const selectRoomSQL = `
SELECT
  r.id, r.number, r.hotel_id, r.position_x, r.position_y, r.floor, r.capacity, r.features,
  r.created_at, r.updated_at,
  h.name, h.address
FROM rooms r
JOIN hotels h ON h.id = r.hotel_id
`

const insertCustomerSQL = `
INSERT INTO customers (national_id, first_name, last_name)
VALUES (?, ?, ?)
`

const updateCustomerSQL = `
UPDATE customers
SET first_name = ?, last_name = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const selectCustomerSQL = `
SELECT id, national_id, first_name, last_name, created_at, updated_at
FROM customers
`

const insertReservationSQL = `
INSERT INTO reservations
  (reference, hotel_id, room_id, customer_id, check_in, check_out, guest_count)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Joined view used by every reservation read.
const selectReservationSQL = `
SELECT
  rs.id, rs.reference, rs.hotel_id, rs.room_id, rs.customer_id,
  rs.check_in, rs.check_out, rs.guest_count, rs.created_at,
  h.name, h.address,
  r.number, r.floor, r.capacity, r.features,
  c.national_id, c.first_name, c.last_name
FROM reservations rs
JOIN hotels h    ON h.id = rs.hotel_id
JOIN rooms r     ON r.id = rs.room_id
JOIN customers c ON c.id = rs.customer_id
`

const orderReservationsSQL = `
ORDER BY rs.check_in ASC, r.floor ASC, r.number ASC, rs.id ASC
`
