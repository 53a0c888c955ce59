package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/orders"
	"myshop-backend/pkg/enums"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type updateOrderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type decideRequestPayload struct {
	Approve bool `json:"approve"`
}

type bulkRequestPayload struct {
	RequestIDs []string `json:"request_ids" validate:"required,min=1,dive,uuid"`
}

// AdminOrderList returns all orders with optional status, payment status
// and user filters.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var filters orders.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			if !status.IsValid() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status"))
				return
			}
			filters.PaymentStatus = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			userID, err := parseUUIDField(raw, "user_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			filters.UserID = &userID
		}

		rows, nextCursor, err := svc.List(ctx, filters, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orders":      rows,
			"next_cursor": nextCursor,
		})
	}
}

// AdminOrderUpdateStatus advances an order through the fulfillment flow.
func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := uuidParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateOrderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, enums.OrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminCancellationList returns cancellation requests, optionally by
// review status.
func AdminCancellationList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		status, err := requestStatusFilter(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		requests, err := svc.ListCancellations(ctx, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"requests": requests})
	}
}

// AdminReturnList returns return requests, optionally by review status.
func AdminReturnList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		status, err := requestStatusFilter(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		requests, err := svc.ListReturns(ctx, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"requests": requests})
	}
}

// AdminCancellationDecide approves or rejects a cancellation request.
// Approval refunds paid orders and restocks the items.
func AdminCancellationDecide(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		requestID, err := uuidParam(r, "requestID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload decideRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.DecideCancellation(ctx, requestID, payload.Approve)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// AdminReturnDecide approves or rejects a return request.
func AdminReturnDecide(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		requestID, err := uuidParam(r, "requestID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload decideRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.DecideReturn(ctx, requestID, payload.Approve)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// AdminReturnMarkRefund records the manual bank transfer for an approved
// bank-method return.
func AdminReturnMarkRefund(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		requestID, err := uuidParam(r, "requestID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.MarkRefundProcessed(ctx, requestID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// AdminBulkApproveCancellations approves a batch of cancellation
// requests, reporting per-item outcomes.
func AdminBulkApproveCancellations(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		requestIDs, err := bulkRequestIDs(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.BulkApproveCancellations(ctx, requestIDs)
		if result == nil && err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminBulkMarkRefunds marks a batch of bank refunds as processed,
// reporting per-item outcomes.
func AdminBulkMarkRefunds(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		requestIDs, err := bulkRequestIDs(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.BulkMarkRefundsProcessed(ctx, requestIDs)
		if result == nil && err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func requestStatusFilter(r *http.Request) (*enums.RequestStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseRequestStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}

func bulkRequestIDs(r *http.Request) ([]uuid.UUID, error) {
	var payload bulkRequestPayload
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(payload.RequestIDs))
	for _, raw := range payload.RequestIDs {
		id, err := parseUUIDField(raw, "request_ids")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
