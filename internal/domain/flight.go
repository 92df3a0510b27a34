package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SearchQuery describes one offer search. DepartureDate carries date-only
// granularity; the caller is expected to have truncated it already.
type SearchQuery struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Adults        int
	Currency      string // empty means "use configured default"
	Max           int    // 0 means "use configured default"
}

// FlightOffer is the client-facing projection of a provider offer, built either
// from a fresh provider response or re-hydrated from a cache row.
type FlightOffer struct {
	OfferID     string
	Origin      string
	Destination string
	DepartureAt time.Time
	ArrivalAt   time.Time
	Airline     string // first segment carrier code, e.g. EK
	Duration    string // ISO-8601 duration, e.g. PT3H25M
	Stops       int
	Price       decimal.Decimal
	Currency    string
}

// CachedOffer is one append-only row of the offer cache. Rows are immutable
// once written and never physically deleted; freshness is a query-time filter.
type CachedOffer struct {
	ID            int64
	OfferID       string // provider-assigned, may repeat across refresh cycles
	Origin        string
	Destination   string
	DepartureDate time.Time
	Airline       string
	Price         decimal.Decimal
	Currency      string
	RawPayload    []byte // per-offer JSON fragment, kept for reconfirmation
	CachedAt      time.Time
}

// PricingQuote is the authoritative price re-derived from the provider for a
// previously cached offer, plus the cached route metadata for display.
type PricingQuote struct {
	OfferID       string
	Total         decimal.Decimal
	Currency      string
	Airline       string
	Origin        string
	Destination   string
	DepartureDate time.Time
}

// ProviderOffer pairs a parsed offer with the raw JSON fragment it came from.
type ProviderOffer struct {
	Offer FlightOffer
	Raw   []byte
}
