package controllers

import (
	"net/http"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/checkout"
	"myshop-backend/internal/orders"
	"myshop-backend/pkg/enums"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type checkoutPayload struct {
	AddressID   string `json:"address_id" validate:"required,uuid"`
	PaymentMode string `json:"payment_mode" validate:"required"`
}

// Checkout turns the active cart into an order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := parseUUIDField(payload.AddressID, "address_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(ctx, userID, checkout.Input{
			AddressID:   addressID,
			PaymentMode: enums.PaymentMode(payload.PaymentMode),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentConfirm is the client-side gateway callback with the payment
// signature.
func PaymentConfirm(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var input orders.ConfirmPaymentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.ConfirmGatewayPayment(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
