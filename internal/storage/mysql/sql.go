package mysql

// Overlap rule shared by admission and listing, the SQL form of domain.Overlaps:
// an existing booking b overlaps window w when b.date_from <= w.to AND
// b.date_to >= w.from (both ends inclusive). Keep the two in step.
// Parameters are always bound in that order: (w.to, w.from).
const overlapCond = `b.date_from <= ? AND b.date_to >= ?`

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const insertHotelSQL = `INSERT INTO hotels (title, location) VALUES (?, ?)`

const getHotelSQL = `SELECT id, title, location FROM hotels WHERE id = ?`

const updateHotelSQL = `UPDATE hotels SET title = ?, location = ? WHERE id = ?`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const listHotelsPrefix = `SELECT h.id, h.title, h.location FROM hotels h`

// SQL form of domain.HotelHasAvailability: one of the hotel's rooms has more
// units than overlapping bookings.
const hotelAvailableCond = `EXISTS (
  SELECT 1 FROM rooms r
  WHERE r.hotel_id = h.id
    AND r.quantity > (
      SELECT COUNT(*) FROM bookings b
      WHERE b.room_id = r.id AND ` + overlapCond + `
    )
)`

// -----------------------------------------------------------------------------
// ROOMS
// -----------------------------------------------------------------------------

const roomCols = `r.id, r.hotel_id, r.title, r.description, r.price, r.quantity`

const insertRoomSQL = `
INSERT INTO rooms (hotel_id, title, description, price, quantity)
VALUES (?, ?, ?, ?, ?)
`

const getRoomSQL = `SELECT ` + roomCols + ` FROM rooms r WHERE r.hotel_id = ? AND r.id = ?`

const updateRoomSQL = `
UPDATE rooms
SET title = ?, description = ?, price = ?, quantity = ?
WHERE hotel_id = ? AND id = ?
`

const deleteRoomSQL = `DELETE FROM rooms WHERE hotel_id = ? AND id = ?`

const roomsWithOverlapsSQL = `
SELECT ` + roomCols + `,
  (SELECT COUNT(*) FROM bookings b WHERE b.room_id = r.id AND ` + overlapCond + `) AS overlapping
FROM rooms r
WHERE r.hotel_id = ?
ORDER BY r.id
`

const insertRoomFacilityPrefix = `INSERT INTO rooms_facilities (room_id, facility_id) VALUES `

const deleteRoomFacilitiesSQL = `DELETE FROM rooms_facilities WHERE room_id = ?`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

// Row lock on the room serialises concurrent admissions for it.
const lockRoomSQL = `SELECT ` + roomCols + ` FROM rooms r WHERE r.id = ? FOR UPDATE`

// Read under the room lock; the service counts them with domain.CountOverlapping.
const overlappingStaysSQL = `SELECT b.date_from, b.date_to FROM bookings b WHERE b.room_id = ? AND ` + overlapCond

const insertBookingSQL = `
INSERT INTO bookings (user_id, room_id, date_from, date_to, price)
VALUES (?, ?, ?, ?, ?)
`

const bookingCols = `id, user_id, room_id, date_from, date_to, price`

const listBookingsSQL = `SELECT ` + bookingCols + ` FROM bookings ORDER BY id`

const listUserBookingsSQL = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id = ? ORDER BY id`

const listCheckInsSQL = `SELECT ` + bookingCols + ` FROM bookings WHERE date_from = ? ORDER BY id`

const deleteUserBookingSQL = `DELETE FROM bookings WHERE id = ? AND user_id = ?`

// -----------------------------------------------------------------------------
// USERS & FACILITIES
// -----------------------------------------------------------------------------

const insertUserSQL = `INSERT INTO users (email, hashed_password) VALUES (?, ?)`

const getUserByEmailSQL = `SELECT id, email, hashed_password FROM users WHERE email = ?`

const getUserByIDSQL = `SELECT id, email, hashed_password FROM users WHERE id = ?`

const insertFacilitySQL = `INSERT INTO facilities (title) VALUES (?)`

const listFacilitiesSQL = `SELECT id, title FROM facilities ORDER BY id`
