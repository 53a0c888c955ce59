package controllers

import (
	"net/http"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/users"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

// AddressList returns the buyer's address book.
func AddressList(svc users.AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		addresses, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}

// AddressCreate adds a shipping address to the buyer's address book.
func AddressCreate(svc users.AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.AddressInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		address, err := svc.Create(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

// AddressUpdate replaces an address owned by the buyer.
func AddressUpdate(svc users.AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := uuidParam(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input users.AddressInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		address, err := svc.Update(ctx, userID, addressID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}

// AddressDelete removes an address owned by the buyer.
func AddressDelete(svc users.AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := uuidParam(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, addressID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}
