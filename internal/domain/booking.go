package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingCancelled BookingStatus = "Cancelled"
)

// Booking references its offer by value only; the cache row may be long past
// its freshness window by booking time, reconfirmation is the price authority.
type Booking struct {
	ID            int64
	UserID        int64
	OfferID       string
	DepartureDate time.Time
	Passengers    int
	TotalPrice    decimal.Decimal // reconfirmed unit price × passengers, exact
	Currency      string
	Status        BookingStatus
	RawPayload    []byte // snapshot of the cached offer payload at booking time
	CreatedAt     time.Time
}
