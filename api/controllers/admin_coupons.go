package controllers

import (
	"net/http"
	"time"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/coupons"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type createCouponPayload struct {
	Code           string    `json:"code" validate:"required"`
	Percent        int       `json:"percent" validate:"required,min=1,max=100"`
	ValidFrom      time.Time `json:"valid_from" validate:"required"`
	ValidTo        time.Time `json:"valid_to" validate:"required"`
	IsActive       bool      `json:"is_active"`
	ShowOnHomepage bool      `json:"show_on_homepage"`
}

type updateCouponPayload struct {
	Percent        *int       `json:"percent,omitempty" validate:"omitempty,min=1,max=100"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidTo        *time.Time `json:"valid_to,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	ShowOnHomepage *bool      `json:"show_on_homepage,omitempty"`
}

// AdminCouponList returns every coupon, active or not.
func AdminCouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		rows, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"coupons": rows})
	}
}

// AdminCouponCreate adds a coupon.
func AdminCouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload createCouponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Create(ctx, coupons.CreateInput{
			Code:           payload.Code,
			Percent:        payload.Percent,
			ValidFrom:      payload.ValidFrom,
			ValidTo:        payload.ValidTo,
			IsActive:       payload.IsActive,
			ShowOnHomepage: payload.ShowOnHomepage,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// AdminCouponUpdate edits a coupon.
func AdminCouponUpdate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := uuidParam(r, "couponID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCouponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Update(ctx, couponID, coupons.UpdateInput{
			Percent:        payload.Percent,
			ValidFrom:      payload.ValidFrom,
			ValidTo:        payload.ValidTo,
			IsActive:       payload.IsActive,
			ShowOnHomepage: payload.ShowOnHomepage,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// AdminCouponDelete removes a coupon.
func AdminCouponDelete(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := uuidParam(r, "couponID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, couponID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}
