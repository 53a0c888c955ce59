package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"myshop-backend/api/responses"
	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

const (
	signatureHeader  = "X-Razorpay-Signature"
	eventPaymentDone = "payment.captured"
	webhookBodyLimit = 1 << 20
)

type signatureVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) error
}

type paymentConfirmer interface {
	ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error)
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Razorpay is the server-to-server gateway webhook. It verifies the body
// signature and confirms captured payments; other events are
// acknowledged and ignored. Replays are safe because confirmation is
// idempotent on the gateway order.
func Razorpay(gateway signatureVerifier, confirmer paymentConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if gateway == nil || confirmer == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook dependencies unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if err := gateway.VerifyWebhookSignature(body, r.Header.Get(signatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var event razorpayEvent
		if err := json.Unmarshal(body, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event"))
			return
		}

		if event.Event != eventPaymentDone {
			ctx = logg.WithField(ctx, "event", event.Event)
			logg.Info(ctx, "ignoring razorpay webhook event")
			responses.WriteSuccess(w, map[string]any{"handled": false})
			return
		}

		entity := event.Payload.Payment.Entity
		if entity.OrderID == "" || entity.ID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing order or payment id"))
			return
		}

		order, err := confirmer.ConfirmFromWebhook(ctx, entity.OrderID, entity.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ctx = logg.WithOrderID(ctx, order.ID.String())
		logg.Info(ctx, "razorpay payment captured")
		responses.WriteSuccess(w, map[string]any{"handled": true})
	}
}
