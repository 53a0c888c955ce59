package enums

import "fmt"

// RequestStatus tracks buyer-initiated cancellation and return requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusApproved,
	RequestStatusRejected,
}

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}

// RefundMethod selects how an approved return is paid back.
type RefundMethod string

const (
	RefundMethodOriginal RefundMethod = "original"
	RefundMethodBank     RefundMethod = "bank"
)

var validRefundMethods = []RefundMethod{
	RefundMethodOriginal,
	RefundMethodBank,
}

// String implements fmt.Stringer.
func (r RefundMethod) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundMethod.
func (r RefundMethod) IsValid() bool {
	for _, candidate := range validRefundMethods {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundMethod converts raw input into a RefundMethod.
func ParseRefundMethod(value string) (RefundMethod, error) {
	for _, candidate := range validRefundMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund method %q", value)
}
