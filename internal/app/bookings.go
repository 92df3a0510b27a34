package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// Reconfirmer is the slice of PricingService the orchestrator needs.
type Reconfirmer interface {
	Reconfirm(ctx context.Context, offerID string) (domain.PricingQuote, error)
}

// BookingService orchestrates cache lookup + price reconfirmation into one
// booking record. A booking either fully succeeds (Pending row persisted) or
// fully fails with no side effect.
type BookingService struct {
	bookings domain.BookingRepository
	offers   domain.OfferCacheRepository
	pricing  Reconfirmer
	cache    domain.Cache          // booking-list read model, may be nil
	events   domain.EventPublisher // may be nil
	cacheTTL time.Duration

	now func() time.Time
}

func NewBookingService(bookings domain.BookingRepository, offers domain.OfferCacheRepository, pricing Reconfirmer, cache domain.Cache, events domain.EventPublisher, cacheTTL time.Duration) *BookingService {
	return &BookingService{
		bookings: bookings,
		offers:   offers,
		pricing:  pricing,
		cache:    cache,
		events:   events,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

type bookingEvent struct {
	Type      string    `json:"type"`
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	OfferID   string    `json:"offer_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// CreateBooking accepts any historical cache row for offerID, however old:
// the reconfirmation call is the price authority, the cached row only carries
// the payload. Total = reconfirmed unit price × passengers, exact.
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, offerID string, passengers int) (domain.Booking, error) {
	if passengers < 1 {
		passengers = 1
	}

	row, err := s.offers.LatestByOfferID(ctx, offerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("offer %s not found or expired: %w", offerID, domain.ErrNotFound)
		}
		return domain.Booking{}, err
	}

	quote, err := s.pricing.Reconfirm(ctx, offerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("offer %s: %w", offerID, domain.ErrPriceUnavailable)
		}
		return domain.Booking{}, err
	}

	b := domain.Booking{
		UserID:        userID,
		OfferID:       offerID,
		DepartureDate: row.DepartureDate,
		Passengers:    passengers,
		TotalPrice:    quote.Total.Mul(decimal.NewFromInt(int64(passengers))),
		Currency:      quote.Currency,
		Status:        domain.BookingPending,
		RawPayload:    row.RawPayload,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.bookings.Insert(ctx, &b); err != nil {
		return domain.Booking{}, err
	}

	s.invalidateList(ctx, userID)
	s.publish(ctx, "booking.created", b)
	return b, nil
}

// ListBookings returns the user's bookings newest first, read through the
// volatile cache when one is wired.
func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	key := listKey(userID)
	if s.cache != nil {
		var cached []domain.Booking
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}
	out, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// CancelBooking reports false both for unknown ids and for bookings owned by
// another user; callers cannot tell the two apart. Repeated cancellation of
// an owned booking stays true.
func (s *BookingService) CancelBooking(ctx context.Context, id, userID int64) (bool, error) {
	ok, err := s.bookings.Cancel(ctx, id, userID)
	if err != nil || !ok {
		return false, err
	}
	s.invalidateList(ctx, userID)
	s.publish(ctx, "booking.cancelled", domain.Booking{ID: id, UserID: userID, Status: domain.BookingCancelled})
	return true, nil
}

func (s *BookingService) invalidateList(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, listKey(userID))
	}
}

func (s *BookingService) publish(ctx context.Context, typ string, b domain.Booking) {
	if s.events == nil {
		return
	}
	ev := bookingEvent{
		Type:      typ,
		BookingID: b.ID,
		UserID:    b.UserID,
		OfferID:   b.OfferID,
		Status:    string(b.Status),
		At:        s.now().UTC(),
	}
	if err := s.events.Publish(ctx, fmt.Sprintf("booking-%d", b.ID), ev); err != nil {
		log.Warn().Err(err).Int64("booking_id", b.ID).Str("type", typ).Msg("booking event publish failed")
	}
}

func listKey(userID int64) string { return fmt.Sprintf("bookings:%d", userID) }
