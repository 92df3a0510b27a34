package amadeus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/observability"
	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

const (
	searchPath  = "/v2/shopping/flight-offers"
	pricingPath = "/v1/shopping/flight-offers/pricing"
)

// Client speaks the provider's wire protocol. It performs no automatic
// retries: upstream failures surface to the caller as-is.
type Client struct {
	base   string
	hc     *http.Client
	tokens domain.TokenProvider
	rl     *rate.Limiter
}

func NewClient(base string, tokens domain.TokenProvider, rps int) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: 20 * time.Second},
		tokens: tokens,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- wire schema ----

type searchResponse struct {
	Data []json.RawMessage `json:"data"`
}

type offerPayload struct {
	ID          string `json:"id"`
	Itineraries []struct {
		Duration string `json:"duration"`
		Segments []struct {
			Departure struct {
				At string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				At string `json:"at"`
			} `json:"arrival"`
			CarrierCode string `json:"carrierCode"`
		} `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
}

type pricingRequest struct {
	Data struct {
		Type         string            `json:"type"`
		FlightOffers []json.RawMessage `json:"flightOffers"`
	} `json:"data"`
}

type pricingResponse struct {
	Data struct {
		FlightOffers []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"flightOffers"`
	} `json:"data"`
}

// ---- public API ----

func (c *Client) SearchOffers(ctx context.Context, q domain.SearchQuery) ([]domain.ProviderOffer, error) {
	params := map[string]string{
		"originLocationCode":      q.Origin,
		"destinationLocationCode": q.Destination,
		"departureDate":           q.DepartureDate.Format("2006-01-02"),
		"adults":                  strconv.Itoa(maxInt(1, q.Adults)),
		"currencyCode":            q.Currency,
		"max":                     strconv.Itoa(q.Max),
	}
	if q.Max <= 0 {
		params["max"] = ""
	}
	if q.ReturnDate != nil {
		params["returnDate"] = q.ReturnDate.Format("2006-01-02")
	}

	vals := url.Values{}
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			vals.Set(k, v)
		}
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, searchPath+"?"+vals.Encode(), nil, "search", &resp); err != nil {
		return nil, err
	}

	offers := make([]domain.ProviderOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		fo, err := c.DecodeOffer(raw)
		if err != nil {
			return nil, err
		}
		fo.Origin = q.Origin
		fo.Destination = q.Destination
		offers = append(offers, domain.ProviderOffer{Offer: fo, Raw: raw})
	}
	return offers, nil
}

func (c *Client) PriceOffer(ctx context.Context, raw []byte) (domain.PricedAmount, error) {
	var body pricingRequest
	body.Data.Type = "flight-offers-pricing"
	body.Data.FlightOffers = []json.RawMessage{json.RawMessage(raw)}

	var resp pricingResponse
	if err := c.do(ctx, http.MethodPost, pricingPath, &body, "pricing", &resp); err != nil {
		return domain.PricedAmount{}, err
	}
	if len(resp.Data.FlightOffers) == 0 {
		return domain.PricedAmount{}, fmt.Errorf("%w: pricing response carried no offers", domain.ErrParse)
	}
	p := resp.Data.FlightOffers[0].Price
	total, err := decimal.NewFromString(p.Total)
	if err != nil {
		return domain.PricedAmount{}, fmt.Errorf("%w: pricing total %q: %v", domain.ErrParse, p.Total, err)
	}
	cur := p.Currency
	if cur == "" {
		cur = "USD"
	}
	return domain.PricedAmount{Total: total, Currency: cur}, nil
}

// DecodeOffer maps one raw offer fragment to a FlightOffer. Origin and
// Destination are not part of the fragment; callers fill them in.
func (c *Client) DecodeOffer(raw []byte) (domain.FlightOffer, error) {
	var p offerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.FlightOffer{}, fmt.Errorf("%w: offer fragment: %v", domain.ErrParse, err)
	}
	if len(p.Itineraries) == 0 || len(p.Itineraries[0].Segments) == 0 {
		return domain.FlightOffer{}, fmt.Errorf("%w: offer has no itinerary segments", domain.ErrParse)
	}
	itin := p.Itineraries[0]
	seg := itin.Segments[0]

	depAt, err := parseLocalTime(seg.Departure.At)
	if err != nil {
		return domain.FlightOffer{}, fmt.Errorf("%w: departure.at %q", domain.ErrParse, seg.Departure.At)
	}
	arrAt, err := parseLocalTime(seg.Arrival.At)
	if err != nil {
		return domain.FlightOffer{}, fmt.Errorf("%w: arrival.at %q", domain.ErrParse, seg.Arrival.At)
	}
	if p.Price.Total == "" {
		return domain.FlightOffer{}, fmt.Errorf("%w: offer has no price.total", domain.ErrParse)
	}
	total, err := decimal.NewFromString(p.Price.Total)
	if err != nil {
		return domain.FlightOffer{}, fmt.Errorf("%w: price.total %q: %v", domain.ErrParse, p.Price.Total, err)
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	cur := p.Price.Currency
	if cur == "" {
		cur = "USD"
	}
	return domain.FlightOffer{
		OfferID:     id,
		DepartureAt: depAt,
		ArrivalAt:   arrAt,
		Airline:     seg.CarrierCode,
		Duration:    itin.Duration,
		Stops:       len(itin.Segments) - 1,
		Price:       total,
		Currency:    cur,
	}, nil
}

// ---- internals ----

func (c *Client) do(ctx context.Context, method, path string, body any, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.ObserveExternal("amadeus", endpoint, 0, err, time.Since(start))
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("amadeus", endpoint, resp.StatusCode, nil, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return nil
}

// parseLocalTime accepts the provider's zone-less local timestamps and, as a
// fallback, RFC 3339.
func parseLocalTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
