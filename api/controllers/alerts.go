package controllers

import (
	"net/http"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/alerts"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type productAlertPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// WishlistToggle adds the product to the wishlist, or removes it when it
// is already there.
func WishlistToggle(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
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

		added, err := svc.ToggleWishlist(ctx, userID, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"added": added})
	}
}

// WishlistList returns the buyer's wishlist.
func WishlistList(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListWishlist(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// RestockSubscribe registers the buyer for a back-in-stock email.
func RestockSubscribe(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload productAlertPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDField(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.SubscribeRestock(ctx, userID, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"subscribed": true})
	}
}

// PriceDropSubscribe registers the buyer for a price-drop email.
func PriceDropSubscribe(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload productAlertPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDField(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.SubscribePriceDrop(ctx, userID, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"subscribed": true})
	}
}
