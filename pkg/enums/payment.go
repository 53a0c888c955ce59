package enums

import "fmt"

// PaymentMode distinguishes how the buyer pays for an order.
type PaymentMode string

const (
	PaymentModeCOD      PaymentMode = "cod"
	PaymentModeRazorpay PaymentMode = "razorpay"
)

var validPaymentModes = []PaymentMode{
	PaymentModeCOD,
	PaymentModeRazorpay,
}

// String implements fmt.Stringer.
func (p PaymentMode) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMode.
func (p PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw input into a PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	for _, candidate := range validPaymentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusCOD      PaymentStatus = "cod"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusRefunded,
	PaymentStatusCOD,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
