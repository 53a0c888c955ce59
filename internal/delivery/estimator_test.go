package delivery

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"myshop-backend/pkg/config"
	"myshop-backend/pkg/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestClient(t *testing.T, fn roundTripFunc) *PincodeClient {
	t.Helper()
	client, err := NewPincodeClient(
		config.DeliveryConfig{PincodeAPIBaseURL: "https://pincode.test", Timeout: time.Second},
		WithHTTPClient(&http.Client{Transport: fn}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestEstimator(t *testing.T, lookup stateLookup) *Estimator {
	t.Helper()
	estimator, err := NewEstimator(lookup, testLogger())
	if err != nil {
		t.Fatalf("new estimator: %v", err)
	}
	return estimator
}

type stubLookup struct {
	state string
	err   error
	calls int
}

func (s *stubLookup) LookupState(ctx context.Context, pincode string) (string, error) {
	s.calls++
	return s.state, s.err
}

func TestEstimateMetroSkipsLookup(t *testing.T) {
	t.Parallel()

	lookup := &stubLookup{state: "Karnataka"}
	estimator := newTestEstimator(t, lookup)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	estimate := estimator.Estimate(context.Background(), "560001", now)
	if estimate == nil {
		t.Fatal("expected metro estimate")
	}
	if want := now.AddDate(0, 0, 2); !estimate.Equal(want) {
		t.Fatalf("unexpected estimate %s, want %s", estimate, want)
	}
	if lookup.calls != 0 {
		t.Fatal("metro pincode should not hit the lookup API")
	}
}

func TestEstimateBandsByState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		state string
		days  int
	}{
		{"Kerala", 5},
		{"Maharashtra", 4},
		{"Mizoram", 7},
	}
	for _, tc := range cases {
		estimator := newTestEstimator(t, &stubLookup{state: tc.state})
		estimate := estimator.Estimate(context.Background(), "999999", now)
		if estimate == nil {
			t.Fatalf("%s: expected estimate", tc.state)
		}
		if want := now.AddDate(0, 0, tc.days); !estimate.Equal(want) {
			t.Fatalf("%s: got %s, want %s", tc.state, estimate, want)
		}
	}
}

func TestEstimateFailuresYieldNoEstimate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	estimator := newTestEstimator(t, &stubLookup{err: io.ErrUnexpectedEOF})

	if estimate := estimator.Estimate(context.Background(), "999999", now); estimate != nil {
		t.Fatalf("lookup failure should yield nil, got %s", estimate)
	}
	for _, pincode := range []string{"", "12345", "12345a", "1234567"} {
		if estimate := estimator.Estimate(context.Background(), pincode, now); estimate != nil {
			t.Fatalf("malformed pincode %q should yield nil", pincode)
		}
	}
}

func TestLookupStateParsesResponse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/pincode/682001" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `[
			{"Status": "Success", "PostOffice": [
				{"Name": "Ernakulam", "District": "Ernakulam", "State": "Kerala"}
			]}
		]`), nil
	})

	state, err := client.LookupState(context.Background(), "682001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if state != "Kerala" {
		t.Fatalf("unexpected state %q", state)
	}
}

func TestLookupStateUnknownPincode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[{"Status": "Error", "PostOffice": null}]`), nil
	})

	if _, err := client.LookupState(context.Background(), "000000"); err == nil {
		t.Fatal("expected error for unknown pincode")
	}
}
