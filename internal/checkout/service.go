package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/internal/cart"
	"myshop-backend/internal/inventory"
	"myshop-backend/internal/orders"
	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/razorpay"
)

type cartService interface {
	ActiveRecord(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	PriceStrict(ctx context.Context, record *models.CartRecord, now time.Time) (*cart.View, error)
	ConvertWithTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type addressReader interface {
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.GatewayOrder, error)
	KeyID() string
}

type deliveryEstimator interface {
	Estimate(ctx context.Context, pincode string, now time.Time) *time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input is the place-order payload.
type Input struct {
	AddressID   uuid.UUID         `json:"address_id" validate:"required"`
	PaymentMode enums.PaymentMode `json:"payment_mode" validate:"required"`
}

// Result is the placed order. GatewayOrder is set only when the buyer
// still owes a gateway payment; the client completes it with KeyID.
type Result struct {
	Order        *models.Order          `json:"order"`
	GatewayOrder *razorpay.GatewayOrder `json:"gateway_order,omitempty"`
	KeyID        string                 `json:"key_id,omitempty"`
}

// Service turns an active cart into an order.
//
// COD orders commit immediately: stock is decremented, the cart converts
// and the order starts processing. Gateway orders are created at the
// gateway first and persist as pending; stock stays untouched and the
// cart stays active until the payment confirmation lands.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Carts     cartService
	Addresses addressReader
	Orders    *orders.Repository
	Stock     inventory.Adjuster
	Gateway   paymentGateway
	Estimator deliveryEstimator
	Tx        txRunner
	Now       func() time.Time
}

type service struct {
	carts     cartService
	addresses addressReader
	orders    *orders.Repository
	stock     inventory.Adjuster
	gateway   paymentGateway
	estimator deliveryEstimator
	tx        txRunner
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Estimator == nil {
		return nil, fmt.Errorf("delivery estimator required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		carts:     params.Carts,
		addresses: params.Addresses,
		orders:    params.Orders,
		stock:     params.Stock,
		gateway:   params.Gateway,
		estimator: params.Estimator,
		tx:        params.Tx,
		now:       params.Now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if !input.PaymentMode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	record, err := s.carts.ActiveRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	address, err := s.addresses.Get(ctx, userID, input.AddressID)
	if err != nil {
		return nil, err
	}

	// Strict pricing: a coupon that lapsed since it was applied fails
	// the checkout instead of repricing the cart at full amount.
	now := s.now().UTC()
	view, err := s.carts.PriceStrict(ctx, record, now)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(userID, address, view, input.PaymentMode)

	if input.PaymentMode == enums.PaymentModeRazorpay && view.Quote.Payable.IsPositive() {
		return s.placeGatewayOrder(ctx, order, view)
	}

	if input.PaymentMode == enums.PaymentModeCOD {
		order.PaymentStatus = enums.PaymentStatusCOD
	} else {
		// A fully discounted gateway order needs no payment.
		order.PaymentStatus = enums.PaymentStatusPaid
	}
	order.Status = enums.OrderStatusProcessing
	order.ExpectedDeliveryAt = s.estimator.Estimate(ctx, address.Pincode, now)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.Decrement(ctx, tx, adjustments(view)); err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.carts.ConvertWithTx(ctx, tx, record.ID)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Order: order}, nil
}

func (s *service) placeGatewayOrder(ctx context.Context, order *models.Order, view *cart.View) (*Result, error) {
	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
		Amount:  view.Quote.Payable,
		Receipt: order.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusPending
	order.PaymentStatus = enums.PaymentStatusPending
	order.GatewayOrderID = &gatewayOrder.ID

	// Stock is not reserved and the cart stays active until the payment
	// confirmation claims them.
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	return &Result{
		Order:        order,
		GatewayOrder: gatewayOrder,
		KeyID:        s.gateway.KeyID(),
	}, nil
}

func (s *service) buildOrder(userID uuid.UUID, address *models.Address, view *cart.View, mode enums.PaymentMode) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		AddressID:   address.ID,
		PaymentMode: mode,
		Subtotal:    view.Quote.Subtotal,
		Discount:    view.Quote.Discount,
		Total:       view.Quote.Payable,
		CouponCode:  view.CouponCode,
	}
	for _, line := range view.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Title:     line.Title,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
		})
	}
	return order
}

func adjustments(view *cart.View) []inventory.Adjustment {
	out := make([]inventory.Adjustment, 0, len(view.Lines))
	for _, line := range view.Lines {
		out = append(out, inventory.Adjustment{ProductID: line.ProductID, Qty: line.Qty})
	}
	return out
}
