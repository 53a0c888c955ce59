package controllers

import (
	"net/http"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/cart"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type addCartItemPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type setCartItemQtyPayload struct {
	Qty int `json:"qty" validate:"min=0"`
}

type applyCouponPayload struct {
	Code string `json:"code" validate:"required"`
}

// CartGet returns the priced active cart.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds a product to the cart or bumps its quantity.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDField(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.AddItem(ctx, userID, productID, payload.Qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartSetItemQty sets a line quantity; zero removes the line.
func CartSetItemQty(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload setCartItemQtyPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.SetItemQty(ctx, userID, productID, payload.Qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartRemoveItem deletes a line from the cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.RemoveItem(ctx, userID, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartApplyCoupon validates and attaches a coupon code to the cart.
func CartApplyCoupon(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload applyCouponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.ApplyCoupon(ctx, userID, payload.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartRemoveCoupon detaches the coupon from the cart.
func CartRemoveCoupon(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.RemoveCoupon(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
