package notifications

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
	"myshop-backend/pkg/logger"
	"myshop-backend/pkg/mailer"
)

// Dispatcher sends the event-keyed transactional emails. Every method
// logs failures and reports them to the caller; business transitions
// treat dispatch errors as non-fatal.
type Dispatcher interface {
	RestockAlert(ctx context.Context, email string, product models.Product) error
	PriceDropAlert(ctx context.Context, email string, product models.Product, previousPrice decimal.Decimal) error
	DeliveryInvoice(ctx context.Context, email string, order models.Order) error
	OrderCancelled(ctx context.Context, email string, order models.Order, refunded bool) error
	ReturnRefundProcessed(ctx context.Context, email string, order models.Order) error
}

type dispatcher struct {
	mailer mailer.Mailer
	logger *logger.Logger
}

// NewDispatcher builds the email dispatcher.
func NewDispatcher(m mailer.Mailer, logg *logger.Logger) (Dispatcher, error) {
	if m == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &dispatcher{mailer: m, logger: logg}, nil
}

func (d *dispatcher) RestockAlert(ctx context.Context, email string, product models.Product) error {
	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Back in stock: %s", product.Title),
		Body: fmt.Sprintf(
			"Good news! %s is back in stock at %s. Grab it before it sells out again.",
			product.Title, formatAmount(product.Price),
		),
	}
	return d.send(ctx, enums.NotificationEventRestock, msg)
}

func (d *dispatcher) PriceDropAlert(ctx context.Context, email string, product models.Product, previousPrice decimal.Decimal) error {
	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Price drop: %s", product.Title),
		Body: fmt.Sprintf(
			"%s just dropped from %s to %s.",
			product.Title, formatAmount(previousPrice), formatAmount(product.Price),
		),
	}
	return d.send(ctx, enums.NotificationEventPriceDrop, msg)
}

func (d *dispatcher) DeliveryInvoice(ctx context.Context, email string, order models.Order) error {
	body := fmt.Sprintf("Your order %s has been delivered.\n\nInvoice\n", order.ID)
	for _, item := range order.Items {
		body += fmt.Sprintf("  %s x%d  %s\n", item.Title, item.Qty, formatAmount(item.UnitPrice))
	}
	body += fmt.Sprintf("\nSubtotal: %s\nDiscount: %s\nTotal: %s\n",
		formatAmount(order.Subtotal), formatAmount(order.Discount), formatAmount(order.Total))

	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Delivered: order %s", order.ID),
		Body:    body,
	}
	return d.send(ctx, enums.NotificationEventDeliveryInvoice, msg)
}

func (d *dispatcher) OrderCancelled(ctx context.Context, email string, order models.Order, refunded bool) error {
	body := fmt.Sprintf("Your order %s has been cancelled.", order.ID)
	if refunded {
		body += fmt.Sprintf(" A refund of %s has been issued to your original payment method.", formatAmount(order.Total))
	}
	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Cancelled: order %s", order.ID),
		Body:    body,
	}
	return d.send(ctx, enums.NotificationEventOrderCancelled, msg)
}

func (d *dispatcher) ReturnRefundProcessed(ctx context.Context, email string, order models.Order) error {
	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Refund processed: order %s", order.ID),
		Body: fmt.Sprintf(
			"Your return for order %s is complete and the refund of %s has been processed.",
			order.ID, formatAmount(order.Total),
		),
	}
	return d.send(ctx, enums.NotificationEventReturnRefunded, msg)
}

func (d *dispatcher) send(ctx context.Context, event enums.NotificationEvent, msg mailer.Message) error {
	ctx = d.logger.WithFields(ctx, map[string]any{"event": event.String()})
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.Error(ctx, "notification dispatch failed", err)
		return err
	}
	return nil
}

func formatAmount(amount decimal.Decimal) string {
	return "₹" + amount.StringFixed(2)
}
