package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"myshop-backend/pkg/config"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testConfig() config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "key-secret",
		WebhookSecret: "webhook-secret",
		BaseURL:       "http://razorpay.test/v1",
	}
}

func TestClientCreateOrderRequest(t *testing.T) {
	const expectedURL = "http://razorpay.test/v1/orders"
	respBody := `{"id":"order_ABC123","amount":49900,"currency":"INR","receipt":"ord-1","status":"created"}`

	var capturedURL string
	var capturedAuthUser, capturedAuthPass string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuthUser, capturedAuthPass, _ = req.BasicAuth()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["amount"] != float64(49900) {
			t.Fatalf("unexpected amount %v", payload["amount"])
		}
		if payload["currency"] != "INR" {
			t.Fatalf("unexpected currency %v", payload["currency"])
		}
		if payload["receipt"] != "ord-1" {
			t.Fatalf("unexpected receipt %v", payload["receipt"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), testLogger(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	order, err := client.CreateOrder(context.Background(), OrderCreateParams{
		Amount:  decimal.RequireFromString("499.00"),
		Receipt: "ord-1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuthUser != "rzp_test_key" || capturedAuthPass != "key-secret" {
		t.Fatal("basic auth credentials missing")
	}
	if order.ID != "order_ABC123" || order.AmountPaise != 49900 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestClientCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client, err := NewClient(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CreateOrder(context.Background(), OrderCreateParams{Amount: decimal.Zero})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClientRefundPaymentMapsFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/payments/pay_123/refund" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"code":"GATEWAY_ERROR","description":"refund declined"}}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), testLogger(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.RefundPayment(context.Background(), "pay_123", decimal.RequireFromString("120.50"))
	if err == nil {
		t.Fatal("expected refund error")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeRefundFailed {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(err.Error(), "refund declined") {
		t.Fatalf("expected gateway description in error, got %v", err)
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	client, err := NewClient(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	mac := hmac.New(sha256.New, []byte("key-secret"))
	mac.Write([]byte("order_ABC123|pay_123"))
	valid := hex.EncodeToString(mac.Sum(nil))

	if err := client.VerifyPaymentSignature("order_ABC123", "pay_123", valid); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	err = client.VerifyPaymentSignature("order_ABC123", "pay_123", "deadbeef")
	if err == nil {
		t.Fatal("expected signature mismatch")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeSignatureInvalid {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client, err := NewClient(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	body := []byte(`{"event":"payment.captured"}`)
	mac := hmac.New(sha256.New, []byte("webhook-secret"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	if err := client.VerifyWebhookSignature(body, valid); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := client.VerifyWebhookSignature(body, valid+"0"); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestToPaiseRounding(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"499.00", 49900},
		{"0.01", 1},
		{"120.505", 12051},
		{"1000", 100000},
	}
	for _, tc := range cases {
		if got := toPaise(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("toPaise(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
