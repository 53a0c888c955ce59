package enums

import "fmt"

// NotificationEvent keys the transactional emails the storefront sends.
type NotificationEvent string

const (
	NotificationEventRestock         NotificationEvent = "restock"
	NotificationEventPriceDrop       NotificationEvent = "price_drop"
	NotificationEventDeliveryInvoice NotificationEvent = "delivery_invoice"
	NotificationEventOrderCancelled  NotificationEvent = "order_cancelled"
	NotificationEventReturnRefunded  NotificationEvent = "return_refund_processed"
)

var validNotificationEvents = []NotificationEvent{
	NotificationEventRestock,
	NotificationEventPriceDrop,
	NotificationEventDeliveryInvoice,
	NotificationEventOrderCancelled,
	NotificationEventReturnRefunded,
}

// String implements fmt.Stringer.
func (n NotificationEvent) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationEvent.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw input into a NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
