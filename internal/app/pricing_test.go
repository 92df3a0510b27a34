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

type pricingClient struct {
	fakeClient
	priced     domain.PricedAmount
	priceErr   error
	priceCalls int
	lastRaw    []byte
}

func (c *pricingClient) PriceOffer(ctx context.Context, raw []byte) (domain.PricedAmount, error) {
	c.priceCalls++
	c.lastRaw = raw
	return c.priced, c.priceErr
}

func TestReconfirm_UsesCachedPayload(t *testing.T) {
	client := &pricingClient{priced: domain.PricedAmount{
		Total: decimal.RequireFromString("861.10"), Currency: "USD",
	}}
	cache := &fakeOfferCache{rows: []domain.CachedOffer{{
		OfferID:       "OFFER-1",
		Origin:        "CAI",
		Destination:   "DXB",
		DepartureDate: mustDate("2025-11-10"),
		Airline:       "EK",
		RawPayload:    []byte(`{"id":"OFFER-1"}`),
		CachedAt:      time.Now().UTC(),
	}}}
	svc := app.NewPricingService(client, cache)

	quote, err := svc.Reconfirm(context.Background(), "OFFER-1")
	if err != nil {
		t.Fatalf("Reconfirm: %v", err)
	}
	if !quote.Total.Equal(decimal.RequireFromString("861.10")) || quote.Currency != "USD" {
		t.Fatalf("quote = %+v", quote)
	}
	if quote.Airline != "EK" || quote.Origin != "CAI" || quote.Destination != "DXB" {
		t.Fatalf("cached metadata missing from quote: %+v", quote)
	}
	if string(client.lastRaw) != `{"id":"OFFER-1"}` {
		t.Fatalf("pricing call did not receive the cached payload: %s", client.lastRaw)
	}
}

func TestReconfirm_UnknownOfferSkipsProvider(t *testing.T) {
	client := &pricingClient{}
	svc := app.NewPricingService(client, &fakeOfferCache{})

	_, err := svc.Reconfirm(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if client.priceCalls != 0 {
		t.Fatalf("pricing endpoint called for unknown offer")
	}
}

func TestReconfirm_UpstreamFailure(t *testing.T) {
	client := &pricingClient{priceErr: domain.ErrUpstream}
	cache := &fakeOfferCache{rows: []domain.CachedOffer{{
		OfferID: "OFFER-1", RawPayload: []byte(`{}`), CachedAt: time.Now().UTC(),
	}}}
	svc := app.NewPricingService(client, cache)

	_, err := svc.Reconfirm(context.Background(), "OFFER-1")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
