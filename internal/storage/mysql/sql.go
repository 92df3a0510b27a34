package mysql

// Offer cache is append-only: INSERT only, no updates, no deletes. Freshness
// is enforced at read time with an inclusive cached_at >= cutoff filter.

const insertCachedOfferSQL = `
INSERT INTO flight_cache
  (offer_id, origin, destination, departure_date, airline, price, currency, raw, cached_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const listFreshOffersSQL = `
SELECT id, offer_id, origin, destination, departure_date, airline, price, currency, raw, cached_at
FROM flight_cache
WHERE origin = ? AND destination = ? AND departure_date = ? AND cached_at >= ?
ORDER BY cached_at DESC, id DESC
`

// Latest row wins; the same offer_id may recur across refresh cycles.
const latestOfferSQL = `
SELECT id, offer_id, origin, destination, departure_date, airline, price, currency, raw, cached_at
FROM flight_cache
WHERE offer_id = ?
ORDER BY cached_at DESC, id DESC
LIMIT 1
`

const insertBookingSQL = `
INSERT INTO bookings
  (user_id, offer_id, departure_date, passengers, total_price, currency, status, raw, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const listBookingsSQL = `
SELECT id, user_id, offer_id, departure_date, passengers, total_price, currency, status, raw, created_at
FROM bookings
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
`

// Scoped by owner on purpose: a non-owned id matches zero rows, same as an
// unknown id.
const cancelBookingSQL = `
UPDATE bookings SET status = 'Cancelled'
WHERE id = ? AND user_id = ?
`

// MySQL reports zero affected rows for a no-op UPDATE, so an already-Cancelled
// booking needs this probe to stay idempotent.
const bookingOwnedSQL = `
SELECT status FROM bookings WHERE id = ? AND user_id = ?
`

const insertUserSQL = `
INSERT INTO users (full_name, email, password_hash, role, created_at)
VALUES (?, ?, ?, ?, ?)
`

const getUserByIDSQL = `
SELECT id, full_name, email, password_hash, role, created_at
FROM users WHERE id = ?
`

const getUserByEmailSQL = `
SELECT id, full_name, email, password_hash, role, created_at
FROM users WHERE email = ?
`

const updateUserSQL = `
UPDATE users SET full_name = ?, email = ? WHERE id = ?
`

const deleteUserSQL = `
DELETE FROM users WHERE id = ?
`

const listUsersSQL = `
SELECT id, full_name, email, password_hash, role, created_at
FROM users
ORDER BY id
LIMIT ? OFFSET ?
`

const countUsersSQL = `
SELECT COUNT(*) FROM users
`
