package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type stubVerifier struct {
	err error
}

func (s *stubVerifier) VerifyWebhookSignature(body []byte, signature string) error {
	return s.err
}

type stubConfirmer struct {
	confirmed [][2]string
	order     *models.Order
	err       error
}

func (s *stubConfirmer) ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error) {
	s.confirmed = append(s.confirmed, [2]string{gatewayOrderID, gatewayPaymentID})
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "webhook-test", Level: zerolog.Disabled, Output: io.Discard})
}

func capturedEvent(t *testing.T, orderID, paymentID string) []byte {
	t.Helper()
	payload := map[string]any{
		"event": "payment.captured",
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"order_id": orderID,
				},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return raw
}

func TestRazorpayWebhookConfirmsCapturedPayment(t *testing.T) {
	t.Parallel()

	confirmer := &stubConfirmer{order: &models.Order{ID: uuid.New()}}
	handler := Razorpay(&stubVerifier{}, confirmer, testLogger())

	body := capturedEvent(t, "order_abc", "pay_xyz")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "sig")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(confirmer.confirmed) != 1 {
		t.Fatalf("expected one confirmation got %d", len(confirmer.confirmed))
	}
	if confirmer.confirmed[0] != [2]string{"order_abc", "pay_xyz"} {
		t.Fatalf("unexpected confirmation args: %v", confirmer.confirmed[0])
	}
}

func TestRazorpayWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	confirmer := &stubConfirmer{}
	verifier := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeSignatureInvalid, "webhook signature mismatch")}
	handler := Razorpay(verifier, confirmer, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(capturedEvent(t, "order_abc", "pay_xyz")))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(confirmer.confirmed) != 0 {
		t.Fatalf("confirmation should not run on bad signature")
	}
}

func TestRazorpayWebhookIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	confirmer := &stubConfirmer{}
	handler := Razorpay(&stubVerifier{}, confirmer, testLogger())

	body, err := json.Marshal(map[string]any{"event": "refund.processed"})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(confirmer.confirmed) != 0 {
		t.Fatalf("confirmation should not run for ignored events")
	}

	var envelope struct {
		Data struct {
			Handled bool `json:"handled"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Handled {
		t.Fatalf("ignored event should report handled=false")
	}
}

func TestRazorpayWebhookRequiresPaymentEntity(t *testing.T) {
	t.Parallel()

	confirmer := &stubConfirmer{}
	handler := Razorpay(&stubVerifier{}, confirmer, testLogger())

	body, err := json.Marshal(map[string]any{"event": "payment.captured"})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(confirmer.confirmed) != 0 {
		t.Fatalf("confirmation should not run without payment entity")
	}
}
