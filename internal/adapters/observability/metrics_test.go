package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("amadeus", "search", 200, nil, 40*time.Millisecond)
	observability.ObserveExternal("amadeus", "search", 0, errors.New("dial refused"), 5*time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "travel_http_requests_total") {
		t.Fatalf("expected travel_http_requests_total in output")
	}
	if !strings.Contains(out, `travel_external_requests_total`) {
		t.Fatalf("expected travel_external_requests_total in output")
	}
	// the transport-error sample carries its error class, the success "none"
	if !strings.Contains(out, `error="none"`) || !strings.Contains(out, `error="*errors.errorString"`) {
		t.Fatalf("expected error class labels in output:\n%s", out)
	}
}

func TestLabelErr(t *testing.T) {
	if got := observability.LabelErr(nil); got != "none" {
		t.Fatalf("LabelErr(nil) = %q", got)
	}
	if got := observability.LabelErr(errors.New("x")); got != "*errors.errorString" {
		t.Fatalf("LabelErr = %q", got)
	}
}
