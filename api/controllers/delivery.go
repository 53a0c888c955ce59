package controllers

import (
	"net/http"
	"strings"
	"time"

	"myshop-backend/api/responses"
	"myshop-backend/internal/delivery"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

// DeliveryEstimate returns the expected delivery date for a pincode.
// The estimate is nil when the pincode cannot be served.
func DeliveryEstimate(estimator *delivery.Estimator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if estimator == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery estimator unavailable"))
			return
		}

		pincode := strings.TrimSpace(r.URL.Query().Get("pincode"))
		if pincode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "pincode is required"))
			return
		}

		estimate := estimator.Estimate(ctx, pincode, time.Now().UTC())
		responses.WriteSuccess(w, map[string]any{
			"pincode":              pincode,
			"expected_delivery_at": estimate,
		})
	}
}
