package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// ---- offer cache ----

type OfferCacheRepo struct{ db *sql.DB }

func NewOfferCache(db *sql.DB) *OfferCacheRepo { return &OfferCacheRepo{db: db} }

// InsertOffers appends the whole batch inside one transaction; a failure on
// any row leaves none behind.
func (r *OfferCacheRepo) InsertOffers(ctx context.Context, offers []domain.CachedOffer) error {
	if len(offers) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertCachedOfferSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range offers {
		if _, err := stmt.ExecContext(ctx,
			o.OfferID,
			o.Origin,
			o.Destination,
			o.DepartureDate,
			o.Airline,
			o.Price,
			o.Currency,
			o.RawPayload,
			o.CachedAt,
		); err != nil {
			return fmt.Errorf("insert cached offer %s: %w", o.OfferID, err)
		}
	}
	return tx.Commit()
}

func (r *OfferCacheRepo) ListFresh(ctx context.Context, origin, destination string, departureDate, cutoff time.Time) ([]domain.CachedOffer, error) {
	rows, err := r.db.QueryContext(ctx, listFreshOffersSQL, origin, destination, departureDate, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CachedOffer
	for rows.Next() {
		o, err := scanCachedOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OfferCacheRepo) LatestByOfferID(ctx context.Context, offerID string) (domain.CachedOffer, error) {
	o, err := scanCachedOffer(r.db.QueryRowContext(ctx, latestOfferSQL, offerID))
	if err == sql.ErrNoRows {
		return domain.CachedOffer{}, domain.ErrNotFound
	}
	return o, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanCachedOffer(s rowScanner) (domain.CachedOffer, error) {
	var o domain.CachedOffer
	err := s.Scan(
		&o.ID,
		&o.OfferID,
		&o.Origin,
		&o.Destination,
		&o.DepartureDate,
		&o.Airline,
		&o.Price,
		&o.Currency,
		&o.RawPayload,
		&o.CachedAt,
	)
	return o, err
}

// ---- bookings ----

type BookingRepo struct{ db *sql.DB }

func NewBookings(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.UserID,
		b.OfferID,
		b.DepartureDate,
		b.Passengers,
		b.TotalPrice,
		b.Currency,
		string(b.Status),
		b.RawPayload,
		b.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r *BookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var status string
		if err := rows.Scan(
			&b.ID,
			&b.UserID,
			&b.OfferID,
			&b.DepartureDate,
			&b.Passengers,
			&b.TotalPrice,
			&b.Currency,
			&status,
			&b.RawPayload,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.Status = domain.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Cancel returns false for unknown ids and for rows owned by someone else;
// the two cases are indistinguishable to the caller. Cancelling an already
// Cancelled booking stays true: MySQL reports zero affected rows for the
// no-op UPDATE, so the ownership probe below keeps the call idempotent.
func (r *BookingRepo) Cancel(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, cancelBookingSQL, id, userID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return true, nil
	}
	var status string
	err = r.db.QueryRowContext(ctx, bookingOwnedSQL, id, userID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ---- users ----

type UserRepo struct{ db *sql.DB }

func NewUsers(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Insert(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, insertUserSQL,
		u.FullName, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByIDSQL, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, updateUserSQL, u.FullName, u.Email, u.ID)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteUserSQL, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countUsersSQL).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}
