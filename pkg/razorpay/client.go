package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"myshop-backend/pkg/config"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

const (
	defaultBaseURL             = "https://api.razorpay.com/v1"
	defaultTimeout             = 10 * time.Second
	currencyINR                = "INR"
	errorBodyReadLimit   int64 = 2048
	refundSpeedNormal          = "normal"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")

	paiseMultiplier = decimal.NewFromInt(100)
)

// Client wraps the Razorpay Orders and Refunds APIs with centralized
// auth, logging, and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the Razorpay wrapper and validates the credentials.
func NewClient(cfg config.RazorpayConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		logger:        logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// KeyID returns the configured public key, safe to hand to browser checkout.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// GatewayOrder is the subset of the Razorpay order payload the service uses.
type GatewayOrder struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// Refund is the subset of the Razorpay refund payload the service uses.
type Refund struct {
	ID          string `json:"id"`
	PaymentID   string `json:"payment_id"`
	AmountPaise int64  `json:"amount"`
	Status      string `json:"status"`
}

// OrderCreateParams describes a gateway order to open for an amount in rupees.
type OrderCreateParams struct {
	Amount  decimal.Decimal
	Receipt string
}

// CreateOrder opens a gateway order for the given rupee amount.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*GatewayOrder, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order amount must be positive")
	}

	body := map[string]any{
		"amount":   toPaise(params.Amount),
		"currency": currencyINR,
		"receipt":  params.Receipt,
	}
	c.log(ctx, "request", "create_order", map[string]any{
		"receipt":      params.Receipt,
		"amount_paise": toPaise(params.Amount),
	})

	var order GatewayOrder
	if err := c.do(ctx, http.MethodPost, "orders", body, &order); err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return &order, nil
}

// RefundPayment issues a full or partial refund against a captured payment.
func (c *Client) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (*Refund, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	trimmed := strings.TrimSpace(paymentID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment ID is required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	path := fmt.Sprintf("payments/%s/refund", url.PathEscape(trimmed))
	body := map[string]any{
		"amount": toPaise(amount),
		"speed":  refundSpeedNormal,
	}
	c.log(ctx, "request", "refund_payment", map[string]any{
		"payment_id":   trimmed,
		"amount_paise": toPaise(amount),
	})

	var refund Refund
	if err := c.do(ctx, http.MethodPost, path, body, &refund); err != nil {
		c.log(ctx, "error", "refund_payment", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeRefundFailed, err, "gateway refund failed")
	}

	c.log(ctx, "response", "refund_payment", map[string]any{
		"refund_id": refund.ID,
		"status":    refund.Status,
	})
	return &refund, nil
}

// VerifyPaymentSignature checks the checkout callback signature computed
// over "<order_id>|<payment_id>" with the key secret.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	payload := fmt.Sprintf("%s|%s", gatewayOrderID, gatewayPaymentID)
	if !verifyHMAC([]byte(c.keySecret), []byte(payload), signature) {
		return pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature mismatch")
	}
	return nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against
// the raw webhook body using the webhook secret.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	if c.webhookSecret == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "razorpay webhook secret not configured")
	}
	if !verifyHMAC([]byte(c.webhookSecret), body, signature) {
		return pkgerrors.New(pkgerrors.CodeSignatureInvalid, "webhook signature mismatch")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal razorpay request")
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build razorpay request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute razorpay request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode razorpay response")
	}
	return nil
}

func (c *Client) mapAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var apiErr struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	description := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Description != "" {
		description = apiErr.Error.Description
	}

	cause := fmt.Errorf("status %d: %s", resp.StatusCode, description)
	return pkgerrors.Wrap(domainCodeForStatus(resp.StatusCode), cause, "razorpay request failed")
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "signature", "token", "card", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func verifyHMAC(secret, payload []byte, signature string) bool {
	provided := strings.TrimSpace(signature)
	if provided == "" {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(paiseMultiplier).Round(0).IntPart()
}
