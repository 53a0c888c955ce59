package controllers

import (
	"net/http"
	"time"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/deals"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type createDealPayload struct {
	ProductID string    `json:"product_id" validate:"required,uuid"`
	DealPrice string    `json:"deal_price" validate:"required"`
	EndsAt    time.Time `json:"ends_at" validate:"required"`
}

type updateDealPayload struct {
	DealPrice *string    `json:"deal_price,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

// AdminDealCreate starts a time-boxed deal on a product.
func AdminDealCreate(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deal service unavailable"))
			return
		}

		var payload createDealPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDField(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dealPrice, err := parseAmountField(payload.DealPrice, "deal_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deal, err := svc.Create(ctx, deals.CreateInput{
			ProductID: productID,
			DealPrice: dealPrice,
			EndsAt:    payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deal)
	}
}

// AdminDealUpdate edits a deal's price, window or active flag.
func AdminDealUpdate(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deal service unavailable"))
			return
		}

		dealID, err := uuidParam(r, "dealID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateDealPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dealPrice, err := parseOptionalAmountField(payload.DealPrice, "deal_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deal, err := svc.Update(ctx, dealID, deals.UpdateInput{
			DealPrice: dealPrice,
			EndsAt:    payload.EndsAt,
			IsActive:  payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

// AdminDealDelete ends and removes a deal.
func AdminDealDelete(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deal service unavailable"))
			return
		}

		dealID, err := uuidParam(r, "dealID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, dealID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}
