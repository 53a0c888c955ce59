package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"myshop-backend/internal/inventory"
	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
	"myshop-backend/pkg/pagination"
	"myshop-backend/pkg/razorpay"
)

// returnWindowDays counts from the delivery date, inclusive.
const returnWindowDays = 7

type paymentGateway interface {
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error
	RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (*razorpay.Refund, error)
}

type cartConverter interface {
	ActiveRecord(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	ConvertWithTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type restockNotifier interface {
	NotifyRestock(ctx context.Context, product models.Product)
}

type mailDispatcher interface {
	DeliveryInvoice(ctx context.Context, email string, order models.Order) error
	OrderCancelled(ctx context.Context, email string, order models.Order, refunded bool) error
	ReturnRefundProcessed(ctx context.Context, email string, order models.Order) error
}

type deliveryEstimator interface {
	Estimate(ctx context.Context, pincode string, now time.Time) *time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConfirmPaymentInput is the client-side payment confirmation callback.
type ConfirmPaymentInput struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// ReturnInput is the buyer's return request payload.
type ReturnInput struct {
	Reason            string             `json:"reason" validate:"required"`
	RefundMethod      enums.RefundMethod `json:"refund_method"`
	BankAccountName   *string            `json:"bank_account_name,omitempty"`
	BankAccountNumber *string            `json:"bank_account_number,omitempty"`
	BankIFSC          *string            `json:"bank_ifsc,omitempty"`
}

// BulkResult reports a bulk admin operation per item.
type BulkResult struct {
	Succeeded []uuid.UUID `json:"succeeded"`
	Failed    []uuid.UUID `json:"failed"`
}

// Service owns the order lifecycle after checkout: payment confirmation,
// fulfillment transitions, cancellations, returns and refunds.
type Service interface {
	ConfirmGatewayPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error)
	ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error)

	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, string, error)

	RequestCancellation(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.CancellationRequest, error)
	RequestReturn(ctx context.Context, userID, orderID uuid.UUID, input ReturnInput) (*models.ReturnRequest, error)

	// Admin surface.
	List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	ListCancellations(ctx context.Context, status *enums.RequestStatus) ([]models.CancellationRequest, error)
	ListReturns(ctx context.Context, status *enums.RequestStatus) ([]models.ReturnRequest, error)
	DecideCancellation(ctx context.Context, requestID uuid.UUID, approve bool) (*models.CancellationRequest, error)
	DecideReturn(ctx context.Context, requestID uuid.UUID, approve bool) (*models.ReturnRequest, error)
	MarkRefundProcessed(ctx context.Context, requestID uuid.UUID) (*models.ReturnRequest, error)
	BulkApproveCancellations(ctx context.Context, requestIDs []uuid.UUID) (*BulkResult, error)
	BulkMarkRefundsProcessed(ctx context.Context, requestIDs []uuid.UUID) (*BulkResult, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo      *Repository
	Stock     inventory.Adjuster
	Gateway   paymentGateway
	Carts     cartConverter
	Users     userFinder
	Products  productFinder
	Alerts    restockNotifier
	Mail      mailDispatcher
	Estimator deliveryEstimator
	Tx        txRunner
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      *Repository
	stock     inventory.Adjuster
	gateway   paymentGateway
	carts     cartConverter
	users     userFinder
	products  productFinder
	alerts    restockNotifier
	mail      mailDispatcher
	estimator deliveryEstimator
	tx        txRunner
	logger    *logger.Logger
	now       func() time.Time
}

// NewService builds the order lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart converter required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("restock notifier required")
	}
	if params.Mail == nil {
		return nil, fmt.Errorf("mail dispatcher required")
	}
	if params.Estimator == nil {
		return nil, fmt.Errorf("delivery estimator required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:      params.Repo,
		stock:     params.Stock,
		gateway:   params.Gateway,
		carts:     params.Carts,
		users:     params.Users,
		products:  params.Products,
		alerts:    params.Alerts,
		mail:      params.Mail,
		estimator: params.Estimator,
		tx:        params.Tx,
		logger:    params.Logger,
		now:       params.Now,
	}, nil
}

// ConfirmGatewayPayment verifies the client callback signature and marks
// the order paid. Signature verification happens before any lookup so a
// forged callback learns nothing about order existence.
func (s *service) ConfirmGatewayPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error) {
	if err := s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature); err != nil {
		return nil, err
	}
	return s.confirmPaid(ctx, input.GatewayOrderID, input.GatewayPaymentID)
}

// ConfirmFromWebhook marks the order paid for an already authenticated
// webhook event.
func (s *service) ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error) {
	return s.confirmPaid(ctx, gatewayOrderID, gatewayPaymentID)
}

func (s *service) confirmPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error) {
	order, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	// Client callback and webhook race; whichever lands second is a no-op.
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return order, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.repo.WithTx(tx).MarkPaidByGatewayOrder(ctx, gatewayOrderID, gatewayPaymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if claimed == 0 {
			// Lost the race; nothing left to do.
			return nil
		}
		if err := s.stock.Decrement(ctx, tx, orderAdjustments(order)); err != nil {
			return err
		}
		if record, err := s.carts.ActiveRecord(ctx, order.UserID); err == nil {
			if err := s.carts.ConvertWithTx(ctx, tx, record.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if eta := s.estimateFor(ctx, order); eta != nil {
		if _, err := s.repo.UpdateFields(ctx, order.ID, map[string]any{"expected_delivery_at": eta}); err != nil {
			s.logger.Error(ctx, "stamp delivery estimate", err)
		}
	}

	confirmed, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return confirmed, nil
}

func (s *service) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, string, error) {
	rows, cursor, err := s.repo.ListUserOrders(ctx, userID, page)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, cursor, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Order, string, error) {
	rows, cursor, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, cursor, nil
}

// fulfillment order of the linear statuses
var statusRank = map[enums.OrderStatus]int{
	enums.OrderStatusPending:        0,
	enums.OrderStatusProcessing:     1,
	enums.OrderStatusShipped:        2,
	enums.OrderStatusOutForDelivery: 3,
	enums.OrderStatusDelivered:      4,
}

// UpdateStatus advances an order along the fulfillment chain. Cancelled
// and returned are reached through request approvals, never directly.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellations and returns go through requests")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
	}

	fromRank, ok := statusRank[order.Status]
	toRank := statusRank[status]
	if !ok || toRank <= fromRank {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if status == enums.OrderStatusDelivered {
		claimed, err := s.repo.SetDelivered(ctx, orderID, s.now().UTC())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark delivered")
		}
		// The invoice email rides the first delivery transition only.
		if claimed > 0 {
			s.sendInvoice(ctx, order)
		}
	} else {
		if _, err := s.repo.UpdateFields(ctx, orderID, map[string]any{"status": status}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
	}

	return s.repo.FindByID(ctx, orderID)
}

func (s *service) RequestCancellation(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.CancellationRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	order, err := s.GetMine(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible, "delivered orders are returned, not cancelled")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible, "order is already closed")
	}

	if _, err := s.repo.FindCancellationByOrder(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateRequest, "cancellation already requested")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cancellation request")
	}

	request := &models.CancellationRequest{
		ID:      uuid.New(),
		OrderID: orderID,
		UserID:  userID,
		Reason:  strings.TrimSpace(reason),
		Status:  enums.RequestStatusPending,
	}
	if err := s.repo.CreateCancellationRequest(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cancellation request")
	}
	return request, nil
}

func (s *service) RequestReturn(ctx context.Context, userID, orderID uuid.UUID, input ReturnInput) (*models.ReturnRequest, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	method := input.RefundMethod
	if method == "" {
		method = enums.RefundMethodOriginal
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund method")
	}
	if method == enums.RefundMethodBank {
		if input.BankAccountName == nil || input.BankAccountNumber == nil || input.BankIFSC == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank refunds need account name, number and IFSC")
		}
	}

	order, err := s.GetMine(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivered || order.DeliveredAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible, "only delivered orders can be returned")
	}
	if !withinReturnWindow(*order.DeliveredAt, s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible,
			fmt.Sprintf("return window of %d days has passed", returnWindowDays))
	}

	if _, err := s.repo.FindReturnByOrder(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateRequest, "return already requested")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check return request")
	}

	request := &models.ReturnRequest{
		ID:                uuid.New(),
		OrderID:           orderID,
		UserID:            userID,
		Reason:            strings.TrimSpace(input.Reason),
		Status:            enums.RequestStatusPending,
		RefundMethod:      method,
		BankAccountName:   input.BankAccountName,
		BankAccountNumber: input.BankAccountNumber,
		BankIFSC:          input.BankIFSC,
	}
	if err := s.repo.CreateReturnRequest(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
	}
	return request, nil
}

func (s *service) ListCancellations(ctx context.Context, status *enums.RequestStatus) ([]models.CancellationRequest, error) {
	requests, err := s.repo.ListCancellations(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cancellation requests")
	}
	return requests, nil
}

func (s *service) ListReturns(ctx context.Context, status *enums.RequestStatus) ([]models.ReturnRequest, error) {
	requests, err := s.repo.ListReturns(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list return requests")
	}
	return requests, nil
}

// DecideCancellation approves or rejects a pending cancellation. The
// pending request is claimed with a conditional update before the
// gateway is touched, so concurrent approvals cannot refund twice. A
// failed refund leaves the order untouched and the request approved
// but unprocessed for manual follow-up.
func (s *service) DecideCancellation(ctx context.Context, requestID uuid.UUID, approve bool) (*models.CancellationRequest, error) {
	request, err := s.repo.FindCancellationByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cancellation request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancellation request")
	}
	if request.Status != enums.RequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
	}
	if request.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "request missing order")
	}
	order := request.Order

	if !approve {
		claimed, err := s.repo.ClaimCancellation(ctx, requestID, enums.RequestStatusRejected)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject cancellation")
		}
		if claimed == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
		}
		return s.repo.FindCancellationByID(ctx, requestID)
	}

	// Claim first. The conditional update is the serialization point:
	// only the winner of a concurrent approval reaches the gateway.
	claimed, err := s.repo.ClaimCancellation(ctx, requestID, enums.RequestStatusApproved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve cancellation")
	}
	if claimed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
	}

	refunded, err := s.refundGatewayPayment(ctx, order)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		fields := map[string]any{"status": enums.OrderStatusCancelled}
		if refunded {
			fields["payment_status"] = enums.PaymentStatusRefunded
		}
		if _, err := repo.UpdateFields(ctx, order.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if stockDecremented(order) {
			return s.restockOrder(ctx, tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyCancelled(ctx, order, refunded)
	return s.repo.FindCancellationByID(ctx, requestID)
}

// DecideReturn approves or rejects a pending return. The pending
// request is claimed before any gateway call. Original-method refunds
// go back through the gateway; when that fails the order still moves
// to returned with refund_processed false so the payout can be retried
// via MarkRefundProcessed. Bank refunds are always paid out manually.
func (s *service) DecideReturn(ctx context.Context, requestID uuid.UUID, approve bool) (*models.ReturnRequest, error) {
	request, err := s.repo.FindReturnByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
	}
	if request.Status != enums.RequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
	}
	if request.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "request missing order")
	}
	order := request.Order

	if !approve {
		claimed, err := s.repo.ClaimReturn(ctx, requestID, enums.RequestStatusRejected)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject return")
		}
		if claimed == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
		}
		return s.repo.FindReturnByID(ctx, requestID)
	}

	claimed, err := s.repo.ClaimReturn(ctx, requestID, enums.RequestStatusApproved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve return")
	}
	if claimed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
	}

	refunded := false
	var refundErr error
	if request.RefundMethod == enums.RefundMethodOriginal {
		refunded, refundErr = s.refundGatewayPayment(ctx, order)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		fields := map[string]any{"status": enums.OrderStatusReturned}
		if refunded {
			fields["payment_status"] = enums.PaymentStatusRefunded
		}
		if _, err := repo.UpdateFields(ctx, order.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return order")
		}
		if refunded {
			if err := tx.WithContext(ctx).
				Model(&models.ReturnRequest{}).
				Where("id = ?", requestID).
				Update("refund_processed", true).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag refund processed")
			}
		}
		if stockDecremented(order) {
			return s.restockOrder(ctx, tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refundErr != nil {
		// Return approved and the order returned; the payout stays open
		// for a manual MarkRefundProcessed once the gateway recovers.
		s.logger.Error(ctx, "return approved but gateway refund failed", refundErr)
		return nil, refundErr
	}
	if refunded {
		s.notifyRefundProcessed(ctx, order)
	}
	return s.repo.FindReturnByID(ctx, requestID)
}

// MarkRefundProcessed records that a bank-method refund was paid out.
func (s *service) MarkRefundProcessed(ctx context.Context, requestID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.repo.FindReturnByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
	}

	claimed, err := s.repo.MarkRefundProcessed(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark refund processed")
	}
	if claimed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund is not pending payout")
	}

	if _, err := s.repo.UpdateFields(ctx, request.OrderID, map[string]any{
		"payment_status": enums.PaymentStatusRefunded,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag order refunded")
	}

	if request.Order != nil {
		s.notifyRefundProcessed(ctx, request.Order)
	}
	return s.repo.FindReturnByID(ctx, requestID)
}

func (s *service) BulkApproveCancellations(ctx context.Context, requestIDs []uuid.UUID) (*BulkResult, error) {
	result := &BulkResult{}
	var errs error
	for _, id := range requestIDs {
		if _, err := s.DecideCancellation(ctx, id, true); err != nil {
			result.Failed = append(result.Failed, id)
			errs = multierr.Append(errs, fmt.Errorf("request %s: %w", id, err))
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, errs
}

func (s *service) BulkMarkRefundsProcessed(ctx context.Context, requestIDs []uuid.UUID) (*BulkResult, error) {
	result := &BulkResult{}
	var errs error
	for _, id := range requestIDs {
		if _, err := s.MarkRefundProcessed(ctx, id); err != nil {
			result.Failed = append(result.Failed, id)
			errs = multierr.Append(errs, fmt.Errorf("request %s: %w", id, err))
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, errs
}

// refundGatewayPayment refunds a paid gateway order. Returns whether a
// refund actually happened; COD and unpaid orders need none.
func (s *service) refundGatewayPayment(ctx context.Context, order *models.Order) (bool, error) {
	if order.PaymentMode != enums.PaymentModeRazorpay {
		return false, nil
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return false, nil
	}
	if order.GatewayPaymentID == nil {
		return false, pkgerrors.New(pkgerrors.CodeRefundFailed, "paid order has no gateway payment id")
	}
	if _, err := s.gateway.RefundPayment(ctx, *order.GatewayPaymentID, order.Total); err != nil {
		return false, err
	}
	return true, nil
}

// stockDecremented reports whether checkout or payment confirmation
// already took stock for this order. Gateway orders still awaiting
// payment never decremented, so restoring for them would inflate stock.
func stockDecremented(order *models.Order) bool {
	if order.PaymentMode != enums.PaymentModeRazorpay {
		return true
	}
	return order.PaymentStatus != enums.PaymentStatusPending
}

func (s *service) restockOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		crossedZero, err := s.stock.Restock(ctx, tx, item.ProductID, item.Qty)
		if err != nil {
			return err
		}
		if crossedZero {
			if product, err := s.products.FindByID(ctx, item.ProductID); err == nil {
				s.alerts.NotifyRestock(ctx, *product)
			}
		}
	}
	return nil
}

func (s *service) estimateFor(ctx context.Context, order *models.Order) *time.Time {
	full, err := s.repo.FindByID(ctx, order.ID)
	if err != nil || full.Address == nil {
		return nil
	}
	return s.estimator.Estimate(ctx, full.Address.Pincode, s.now().UTC())
}

func (s *service) sendInvoice(ctx context.Context, order *models.Order) {
	email, ok := s.userEmail(ctx, order.UserID)
	if !ok {
		return
	}
	delivered, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		delivered = order
	}
	if err := s.mail.DeliveryInvoice(ctx, email, *delivered); err != nil {
		s.logger.Error(ctx, "send delivery invoice", err)
	}
}

func (s *service) notifyCancelled(ctx context.Context, order *models.Order, refunded bool) {
	email, ok := s.userEmail(ctx, order.UserID)
	if !ok {
		return
	}
	if err := s.mail.OrderCancelled(ctx, email, *order, refunded); err != nil {
		s.logger.Error(ctx, "send cancellation email", err)
	}
}

func (s *service) notifyRefundProcessed(ctx context.Context, order *models.Order) {
	email, ok := s.userEmail(ctx, order.UserID)
	if !ok {
		return
	}
	if err := s.mail.ReturnRefundProcessed(ctx, email, *order); err != nil {
		s.logger.Error(ctx, "send refund email", err)
	}
}

func (s *service) userEmail(ctx context.Context, userID uuid.UUID) (string, bool) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "load user for notification", err)
		return "", false
	}
	return user.Email, true
}

func withinReturnWindow(deliveredAt, now time.Time) bool {
	deadline := deliveredAt.AddDate(0, 0, returnWindowDays)
	return !now.After(deadline)
}

func orderAdjustments(order *models.Order) []inventory.Adjustment {
	out := make([]inventory.Adjustment, 0, len(order.Items))
	for _, item := range order.Items {
		out = append(out, inventory.Adjustment{ProductID: item.ProductID, Qty: item.Qty})
	}
	return out
}
