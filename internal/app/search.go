package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// FlightService is the offer search engine: cache-first over the append-only
// flight_cache table, falling back to the external provider on a miss and
// writing all parsed offers back in one transaction.
type FlightService struct {
	client domain.OfferClient
	cache  domain.OfferCacheRepository

	ttl             time.Duration
	defaultCurrency string
	defaultMax      int

	now func() time.Time
}

func NewFlightService(client domain.OfferClient, cache domain.OfferCacheRepository, ttl time.Duration, defaultCurrency string, defaultMax int) *FlightService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	if defaultMax <= 0 {
		defaultMax = 20
	}
	return &FlightService{
		client:          client,
		cache:           cache,
		ttl:             ttl,
		defaultCurrency: defaultCurrency,
		defaultMax:      defaultMax,
		now:             time.Now,
	}
}

func (s *FlightService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightOffer, error) {
	day := dateOnly(q.DepartureDate)
	q.DepartureDate = day
	now := s.now().UTC()
	cutoff := now.Add(-s.ttl)

	rows, err := s.cache.ListFresh(ctx, q.Origin, q.Destination, day, cutoff)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return s.fromCache(rows), nil
	}

	if q.Adults < 1 {
		q.Adults = 1
	}
	if strings.TrimSpace(q.Currency) == "" {
		q.Currency = s.defaultCurrency
	}
	if q.Max <= 0 {
		q.Max = s.defaultMax
	}

	fetched, err := s.client.SearchOffers(ctx, q)
	if err != nil {
		return nil, err
	}

	offers := make([]domain.FlightOffer, 0, len(fetched))
	cacheRows := make([]domain.CachedOffer, 0, len(fetched))
	for _, po := range fetched {
		offers = append(offers, po.Offer)
		cacheRows = append(cacheRows, domain.CachedOffer{
			OfferID:       po.Offer.OfferID,
			Origin:        q.Origin,
			Destination:   q.Destination,
			DepartureDate: day,
			Airline:       po.Offer.Airline,
			Price:         po.Offer.Price,
			Currency:      po.Offer.Currency,
			RawPayload:    po.Raw,
			CachedAt:      now,
		})
	}
	if err := s.cache.InsertOffers(ctx, cacheRows); err != nil {
		return nil, err
	}

	log.Debug().
		Str("origin", q.Origin).
		Str("destination", q.Destination).
		Str("date", day.Format("2006-01-02")).
		Int("offers", len(offers)).
		Msg("offer cache populated")
	return offers, nil
}

// fromCache re-hydrates offers from the stored raw fragments so a cache hit
// returns the same projection a fresh provider response would. Rows whose
// fragment no longer decodes fall back to the cached columns.
func (s *FlightService) fromCache(rows []domain.CachedOffer) []domain.FlightOffer {
	out := make([]domain.FlightOffer, 0, len(rows))
	for _, row := range rows {
		fo, err := s.client.DecodeOffer(row.RawPayload)
		if err != nil {
			fo = domain.FlightOffer{
				DepartureAt: row.DepartureDate,
				ArrivalAt:   row.DepartureDate,
				Airline:     row.Airline,
				Price:       row.Price,
				Currency:    row.Currency,
			}
		}
		fo.OfferID = row.OfferID
		fo.Origin = row.Origin
		fo.Destination = row.Destination
		out = append(out, fo)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
