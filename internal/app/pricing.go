package app

import (
	"context"
	"fmt"

	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// PricingService re-derives an authoritative price for a previously cached
// offer by re-submitting its raw payload to the provider's pricing endpoint.
type PricingService struct {
	client domain.OfferClient
	cache  domain.OfferCacheRepository
}

func NewPricingService(client domain.OfferClient, cache domain.OfferCacheRepository) *PricingService {
	return &PricingService{client: client, cache: cache}
}

// Reconfirm looks up the most recent cache row for offerID regardless of its
// age; an unknown id short-circuits with ErrNotFound before any external call.
func (s *PricingService) Reconfirm(ctx context.Context, offerID string) (domain.PricingQuote, error) {
	row, err := s.cache.LatestByOfferID(ctx, offerID)
	if err != nil {
		return domain.PricingQuote{}, fmt.Errorf("offer %s: %w", offerID, err)
	}

	priced, err := s.client.PriceOffer(ctx, row.RawPayload)
	if err != nil {
		return domain.PricingQuote{}, err
	}

	return domain.PricingQuote{
		OfferID:       offerID,
		Total:         priced.Total,
		Currency:      priced.Currency,
		Airline:       row.Airline,
		Origin:        row.Origin,
		Destination:   row.Destination,
		DepartureDate: row.DepartureDate,
	}, nil
}
