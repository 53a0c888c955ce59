package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"myshop-backend/api/responses"
	"myshop-backend/internal/catalog"
	"myshop-backend/internal/coupons"
	"myshop-backend/internal/deals"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

// ProductList is the public browse endpoint with search, category and
// price filters.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filters := catalog.ListFilters{
			Query:        strings.TrimSpace(r.URL.Query().Get("q")),
			CategorySlug: strings.TrimSpace(r.URL.Query().Get("category")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("price_min")); raw != "" {
			value, err := decimal.NewFromString(raw)
			if err != nil || value.IsNegative() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price_min must be a non-negative amount"))
				return
			}
			filters.PriceMin = &value
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("price_max")); raw != "" {
			value, err := decimal.NewFromString(raw)
			if err != nil || value.IsNegative() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price_max must be a non-negative amount"))
				return
			}
			filters.PriceMax = &value
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("best_deal")); raw != "" {
			best := raw == "true" || raw == "1"
			filters.BestDeal = &best
		}

		result, err := svc.List(ctx, catalog.ListInput{Filters: filters, Pagination: page}, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDetail returns the product page payload by slug.
func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		detail, err := svc.Detail(ctx, chi.URLParam(r, "slug"), time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CategoryList returns all categories for navigation.
func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.Categories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

// Homepage returns the live deals and homepage coupons shown on the
// landing page.
func Homepage(dealSvc deals.Service, couponSvc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if dealSvc == nil || couponSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "homepage services unavailable"))
			return
		}

		liveDeals, err := dealSvc.ListLive(ctx, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		homepageCoupons, err := couponSvc.ListHomepage(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"deals":   liveDeals,
			"coupons": homepageCoupons,
		})
	}
}
