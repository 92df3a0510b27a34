package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OfferCacheRepository is the append-only offer cache. InsertOffers must write
// the whole batch in one transaction: a failure leaves zero rows behind.
type OfferCacheRepository interface {
	InsertOffers(ctx context.Context, offers []CachedOffer) error
	// ListFresh returns rows for (origin, destination, departureDate) with
	// cachedAt >= cutoff (inclusive), newest first.
	ListFresh(ctx context.Context, origin, destination string, departureDate, cutoff time.Time) ([]CachedOffer, error)
	// LatestByOfferID returns the most recent row for offerID regardless of
	// age, or ErrNotFound.
	LatestByOfferID(ctx context.Context, offerID string) (CachedOffer, error)
}

type BookingRepository interface {
	Insert(ctx context.Context, b *Booking) error
	ListByUser(ctx context.Context, userID int64) ([]Booking, error)
	// Cancel flips the booking to Cancelled when it exists and belongs to
	// userID. Absent and not-owned are both reported as false.
	Cancel(ctx context.Context, id, userID int64) (bool, error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u *User) error
	// Delete reports false for unknown ids.
	Delete(ctx context.Context, id int64) (bool, error)
	// List returns users ordered by id, offset/limit paged; Count is the
	// unpaged total for the pagination envelope.
	List(ctx context.Context, offset, limit int) ([]User, error)
	Count(ctx context.Context) (int, error)
}

// TokenProvider hands out a bearer credential for the offer provider,
// refreshing it behind a single-flight guard.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// PricedAmount is the authoritative total returned by the pricing endpoint.
type PricedAmount struct {
	Total    decimal.Decimal
	Currency string
}

// OfferClient is the wire adapter for the external offer provider.
type OfferClient interface {
	SearchOffers(ctx context.Context, q SearchQuery) ([]ProviderOffer, error)
	// PriceOffer re-submits a cached raw offer payload to the pricing endpoint.
	PriceOffer(ctx context.Context, raw []byte) (PricedAmount, error)
	// DecodeOffer re-hydrates a FlightOffer from a cached raw fragment.
	DecodeOffer(raw []byte) (FlightOffer, error)
}

// Cache is a volatile read-model cache (hit/miss semantics, TTL in seconds).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// EventPublisher emits domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}
