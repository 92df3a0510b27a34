package amadeus_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/amadeus"
	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

type staticTokens struct{ token string }

func (s staticTokens) GetToken(ctx context.Context) (string, error) { return s.token, nil }

const sampleOffer = `{
  "id": "OFFER-1",
  "itineraries": [{
    "duration": "PT3H25M",
    "segments": [
      {"departure": {"at": "2025-11-10T09:30:00"}, "arrival": {"at": "2025-11-10T11:45:00"}, "carrierCode": "EK"},
      {"departure": {"at": "2025-11-10T12:40:00"}, "arrival": {"at": "2025-11-10T12:55:00"}, "carrierCode": "EK"}
    ]
  }],
  "price": {"total": "850.78", "currency": "USD"}
}`

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestSearchOffers_ParsesAndKeepsRaw(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/shopping/flight-offers" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data": [` + sampleOffer + `]}`))
	}))
	defer ts.Close()

	cl, err := amadeus.NewClient(ts.URL, staticTokens{"tok"}, 100)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	offers, err := cl.SearchOffers(context.Background(), domain.SearchQuery{
		Origin:        "CAI",
		Destination:   "DXB",
		DepartureDate: date("2025-11-10"),
		Adults:        1,
		Currency:      "USD",
		Max:           20,
	})
	if err != nil {
		t.Fatalf("SearchOffers: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("offers = %d", len(offers))
	}
	o := offers[0].Offer
	if o.OfferID != "OFFER-1" || o.Origin != "CAI" || o.Destination != "DXB" {
		t.Fatalf("unexpected offer identity: %+v", o)
	}
	if o.Airline != "EK" || o.Duration != "PT3H25M" || o.Stops != 1 {
		t.Fatalf("unexpected itinerary mapping: %+v", o)
	}
	if !o.Price.Equal(decimal.RequireFromString("850.78")) || o.Currency != "USD" {
		t.Fatalf("unexpected price: %s %s", o.Price, o.Currency)
	}
	if o.DepartureAt.Hour() != 9 || o.ArrivalAt.Hour() != 11 {
		t.Fatalf("unexpected segment times: %v %v", o.DepartureAt, o.ArrivalAt)
	}

	// raw fragment must survive verbatim enough to round-trip
	var check map[string]any
	if err := json.Unmarshal(offers[0].Raw, &check); err != nil {
		t.Fatalf("raw fragment not JSON: %v", err)
	}
	if check["id"] != "OFFER-1" {
		t.Fatalf("raw fragment id = %v", check["id"])
	}

	for k, want := range map[string]string{
		"originLocationCode":      "CAI",
		"destinationLocationCode": "DXB",
		"departureDate":           "2025-11-10",
		"adults":                  "1",
		"currencyCode":            "USD",
		"max":                     "20",
	} {
		if len(gotQuery[k]) != 1 || gotQuery[k][0] != want {
			t.Fatalf("query %s = %v, want %s", k, gotQuery[k], want)
		}
	}
	if _, ok := gotQuery["returnDate"]; ok {
		t.Fatalf("returnDate should be omitted when unset")
	}
}

func TestSearchOffers_OmitsBlankParams(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer ts.Close()

	cl, _ := amadeus.NewClient(ts.URL, staticTokens{"tok"}, 100)
	_, err := cl.SearchOffers(context.Background(), domain.SearchQuery{
		Origin:        "CAI",
		Destination:   "DXB",
		DepartureDate: date("2025-11-10"),
		Currency:      "   ",
	})
	if err != nil {
		t.Fatalf("SearchOffers: %v", err)
	}
	if _, ok := gotQuery["currencyCode"]; ok {
		t.Fatalf("blank currencyCode should be omitted")
	}
	if _, ok := gotQuery["max"]; ok {
		t.Fatalf("zero max should be omitted")
	}
}

func TestSearchOffers_UpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	cl, _ := amadeus.NewClient(ts.URL, staticTokens{"tok"}, 100)
	_, err := cl.SearchOffers(context.Background(), domain.SearchQuery{
		Origin: "CAI", Destination: "DXB", DepartureDate: date("2025-11-10"),
	})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestSearchOffers_MalformedOffer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// offer with no itineraries
		_, _ = w.Write([]byte(`{"data": [{"id": "X", "price": {"total": "10.00", "currency": "USD"}}]}`))
	}))
	defer ts.Close()

	cl, _ := amadeus.NewClient(ts.URL, staticTokens{"tok"}, 100)
	_, err := cl.SearchOffers(context.Background(), domain.SearchQuery{
		Origin: "CAI", Destination: "DXB", DepartureDate: date("2025-11-10"),
	})
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestPriceOffer_WrapsRawInEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/shopping/flight-offers/pricing" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Data struct {
				Type         string           `json:"type"`
				FlightOffers []map[string]any `json:"flightOffers"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode pricing request: %v", err)
		}
		if body.Data.Type != "flight-offers-pricing" {
			t.Errorf("type = %q", body.Data.Type)
		}
		if len(body.Data.FlightOffers) != 1 || body.Data.FlightOffers[0]["id"] != "OFFER-1" {
			t.Errorf("flightOffers = %+v", body.Data.FlightOffers)
		}
		_, _ = w.Write([]byte(`{"data": {"flightOffers": [{"price": {"total": "861.10", "currency": "EUR"}}]}}`))
	}))
	defer ts.Close()

	cl, _ := amadeus.NewClient(ts.URL, staticTokens{"tok"}, 100)
	priced, err := cl.PriceOffer(context.Background(), []byte(sampleOffer))
	if err != nil {
		t.Fatalf("PriceOffer: %v", err)
	}
	if !priced.Total.Equal(decimal.RequireFromString("861.10")) || priced.Currency != "EUR" {
		t.Fatalf("priced = %+v", priced)
	}
}

func TestPriceOffer_EmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"flightOffers": []}}`))
	}))
	defer ts.Close()

	cl, _ := amadeus.NewClient(ts.URL, staticTokens{"tok"}, 100)
	_, err := cl.PriceOffer(context.Background(), []byte(sampleOffer))
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeOffer_FallbackID(t *testing.T) {
	cl, _ := amadeus.NewClient("http://unused", staticTokens{"tok"}, 100)
	raw := []byte(`{
	  "itineraries": [{"duration": "PT1H", "segments": [
	    {"departure": {"at": "2025-11-10T09:30:00"}, "arrival": {"at": "2025-11-10T10:30:00"}, "carrierCode": "MS"}
	  ]}],
	  "price": {"total": "120.00", "currency": "USD"}
	}`)
	fo, err := cl.DecodeOffer(raw)
	if err != nil {
		t.Fatalf("DecodeOffer: %v", err)
	}
	if fo.OfferID == "" {
		t.Fatalf("expected generated fallback offer id")
	}
	if fo.Stops != 0 {
		t.Fatalf("stops = %d", fo.Stops)
	}
}
