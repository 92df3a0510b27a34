package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wleydkb/TravelProjectBackEnd/internal/app"
	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// ---- fakes ----

type fakeBookingRepo struct {
	bookings []domain.Booking
	nextID   int64
}

func (f *fakeBookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	f.nextID++
	b.ID = f.nextID
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *fakeBookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	for i := len(f.bookings) - 1; i >= 0; i-- {
		if f.bookings[i].UserID == userID {
			out = append(out, f.bookings[i])
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, id, userID int64) (bool, error) {
	for i, b := range f.bookings {
		if b.ID == id && b.UserID == userID {
			f.bookings[i].Status = domain.BookingCancelled
			return true, nil
		}
	}
	return false, nil
}

type fakeReconfirmer struct {
	quote domain.PricingQuote
	err   error
	calls int
}

func (f *fakeReconfirmer) Reconfirm(ctx context.Context, offerID string) (domain.PricingQuote, error) {
	f.calls++
	if f.err != nil {
		return domain.PricingQuote{}, f.err
	}
	q := f.quote
	q.OfferID = offerID
	return q, nil
}

type memCache struct{ store map[string][]domain.Booking }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*[]domain.Booking) = v
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]domain.Booking{}
	}
	c.store[key] = v.([]domain.Booking)
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type capturedEvent struct {
	Key   string
	Value any
}

type fakePublisher struct{ events []capturedEvent }

func (p *fakePublisher) Publish(ctx context.Context, key string, v any) error {
	p.events = append(p.events, capturedEvent{Key: key, Value: v})
	return nil
}

func cachedOfferRow(offerID string) domain.CachedOffer {
	return domain.CachedOffer{
		OfferID:       offerID,
		Origin:        "CAI",
		Destination:   "DXB",
		DepartureDate: mustDate("2025-11-10"),
		Airline:       "EK",
		Price:         decimal.RequireFromString("850.78"),
		Currency:      "USD",
		RawPayload:    []byte(`{"id":"` + offerID + `"}`),
		CachedAt:      time.Now().UTC().Add(-48 * time.Hour), // well past any freshness window
	}
}

func newBookingService(repo *fakeBookingRepo, offers *fakeOfferCache, rc *fakeReconfirmer, cache domain.Cache, pub domain.EventPublisher) *app.BookingService {
	return app.NewBookingService(repo, offers, rc, cache, pub, 15*time.Minute)
}

// ---- tests ----

func TestCreateBooking_TotalIsExactMultiple(t *testing.T) {
	repo := &fakeBookingRepo{}
	offers := &fakeOfferCache{rows: []domain.CachedOffer{cachedOfferRow("OFFER-1")}}
	rc := &fakeReconfirmer{quote: domain.PricingQuote{
		Total: decimal.RequireFromString("861.10"), Currency: "USD",
	}}
	pub := &fakePublisher{}
	svc := newBookingService(repo, offers, rc, &memCache{}, pub)

	b, err := svc.CreateBooking(context.Background(), 7, "OFFER-1", 3)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if !b.TotalPrice.Equal(decimal.RequireFromString("2583.30")) {
		t.Fatalf("total = %s, want exactly 2583.30", b.TotalPrice)
	}
	if b.Status != domain.BookingPending || b.Currency != "USD" || b.Passengers != 3 {
		t.Fatalf("booking = %+v", b)
	}
	if string(b.RawPayload) != `{"id":"OFFER-1"}` {
		t.Fatalf("booking did not snapshot the cached payload")
	}
	if len(pub.events) != 1 || pub.events[0].Key != "booking-1" {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestCreateBooking_AcceptsStaleCacheRow(t *testing.T) {
	// the row above is 48h old; booking must still work because
	// reconfirmation, not the cached price, is the authority
	repo := &fakeBookingRepo{}
	offers := &fakeOfferCache{rows: []domain.CachedOffer{cachedOfferRow("OLD")}}
	rc := &fakeReconfirmer{quote: domain.PricingQuote{
		Total: decimal.RequireFromString("999.99"), Currency: "USD",
	}}
	svc := newBookingService(repo, offers, rc, nil, nil)

	b, err := svc.CreateBooking(context.Background(), 1, "OLD", 1)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if !b.TotalPrice.Equal(decimal.RequireFromString("999.99")) {
		t.Fatalf("total must come from reconfirmation, got %s", b.TotalPrice)
	}
}

func TestCreateBooking_UnknownOffer(t *testing.T) {
	repo := &fakeBookingRepo{}
	rc := &fakeReconfirmer{}
	svc := newBookingService(repo, &fakeOfferCache{}, rc, nil, nil)

	_, err := svc.CreateBooking(context.Background(), 1, "NOPE", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.bookings) != 0 {
		t.Fatalf("booking persisted despite unknown offer")
	}
	if rc.calls != 0 {
		t.Fatalf("reconfirmation attempted for unknown offer")
	}
}

func TestCreateBooking_PriceUnavailable(t *testing.T) {
	repo := &fakeBookingRepo{}
	offers := &fakeOfferCache{rows: []domain.CachedOffer{cachedOfferRow("OFFER-1")}}
	rc := &fakeReconfirmer{err: domain.ErrNotFound}
	svc := newBookingService(repo, offers, rc, nil, nil)

	_, err := svc.CreateBooking(context.Background(), 1, "OFFER-1", 1)
	if !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
	if len(repo.bookings) != 0 {
		t.Fatalf("booking persisted despite unavailable price")
	}
}

func TestCreateBooking_UpstreamFailureNoSideEffect(t *testing.T) {
	repo := &fakeBookingRepo{}
	offers := &fakeOfferCache{rows: []domain.CachedOffer{cachedOfferRow("OFFER-1")}}
	rc := &fakeReconfirmer{err: domain.ErrUpstream}
	svc := newBookingService(repo, offers, rc, nil, nil)

	_, err := svc.CreateBooking(context.Background(), 1, "OFFER-1", 1)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if len(repo.bookings) != 0 {
		t.Fatalf("booking persisted despite upstream failure")
	}
}

func TestListBookings_NewestFirstAndCached(t *testing.T) {
	repo := &fakeBookingRepo{}
	offers := &fakeOfferCache{rows: []domain.CachedOffer{cachedOfferRow("OFFER-1")}}
	rc := &fakeReconfirmer{quote: domain.PricingQuote{Total: decimal.RequireFromString("100.00"), Currency: "USD"}}
	cache := &memCache{}
	svc := newBookingService(repo, offers, rc, cache, nil)

	ctx := context.Background()
	if _, err := svc.CreateBooking(ctx, 7, "OFFER-1", 1); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := svc.CreateBooking(ctx, 7, "OFFER-1", 2); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	out, err := svc.ListBookings(ctx, 7)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(out) != 2 || out[0].ID != 2 || out[1].ID != 1 {
		t.Fatalf("expected newest first, got %+v", out)
	}

	// mutate the repo behind the cache; second read must serve the cached list
	repo.bookings = nil
	out2, err := svc.ListBookings(ctx, 7)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(out2) != 2 {
		t.Fatalf("expected cached list of 2, got %d", len(out2))
	}

	// a new booking invalidates the cached list
	repo.bookings = nil
	repo.nextID = 0
	if _, err := svc.CreateBooking(ctx, 7, "OFFER-1", 1); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	out3, err := svc.ListBookings(ctx, 7)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(out3) != 1 {
		t.Fatalf("expected fresh list after invalidation, got %d", len(out3))
	}
}

func TestCancelBooking_OwnershipHidden(t *testing.T) {
	repo := &fakeBookingRepo{}
	offers := &fakeOfferCache{rows: []domain.CachedOffer{cachedOfferRow("OFFER-1")}}
	rc := &fakeReconfirmer{quote: domain.PricingQuote{Total: decimal.RequireFromString("100.00"), Currency: "USD"}}
	svc := newBookingService(repo, offers, rc, nil, nil)

	ctx := context.Background()
	b, err := svc.CreateBooking(ctx, 7, "OFFER-1", 1)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// wrong owner: false, exactly like a missing id
	if ok, err := svc.CancelBooking(ctx, b.ID, 8); err != nil || ok {
		t.Fatalf("cancel by non-owner = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := svc.CancelBooking(ctx, 99999, 8); err != nil || ok {
		t.Fatalf("cancel of unknown id = (%v, %v), want (false, nil)", ok, err)
	}

	// right owner: success
	if ok, err := svc.CancelBooking(ctx, b.ID, 7); err != nil || !ok {
		t.Fatalf("cancel by owner = (%v, %v), want (true, nil)", ok, err)
	}

	// idempotent: cancelling a Cancelled booking stays Cancelled, no error
	if ok, err := svc.CancelBooking(ctx, b.ID, 7); err != nil || !ok {
		t.Fatalf("repeat cancel = (%v, %v), want (true, nil)", ok, err)
	}
	if repo.bookings[0].Status != domain.BookingCancelled {
		t.Fatalf("status = %s", repo.bookings[0].Status)
	}
}
