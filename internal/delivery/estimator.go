package delivery

import (
	"context"
	"fmt"
	"time"

	"myshop-backend/pkg/logger"
)

const (
	metroTransitDays    = 2
	nearTransitDays     = 4
	defaultTransitDays  = 5
	remoteTransitDays   = 7
	pincodeDigitsNeeded = 6
)

// Metro pincode prefixes ship on the fast lane regardless of what the
// postal API says about the rest of the district.
var metroPrefixes = map[string]struct{}{
	"110": {}, // Delhi
	"400": {}, // Mumbai
	"411": {}, // Pune
	"500": {}, // Hyderabad
	"560": {}, // Bengaluru
	"600": {}, // Chennai
	"700": {}, // Kolkata
	"380": {}, // Ahmedabad
}

// Transit banding by destination state. Anything unlisted takes the
// default band.
var stateTransitDays = map[string]int{
	"Delhi":             nearTransitDays,
	"Haryana":           nearTransitDays,
	"Punjab":            nearTransitDays,
	"Uttar Pradesh":     nearTransitDays,
	"Rajasthan":         nearTransitDays,
	"Maharashtra":       nearTransitDays,
	"Gujarat":           nearTransitDays,
	"Karnataka":         nearTransitDays,
	"Tamil Nadu":        nearTransitDays,
	"Telangana":         nearTransitDays,
	"West Bengal":       nearTransitDays,
	"Arunachal Pradesh": remoteTransitDays,
	"Assam":             remoteTransitDays,
	"Manipur":           remoteTransitDays,
	"Meghalaya":         remoteTransitDays,
	"Mizoram":           remoteTransitDays,
	"Nagaland":          remoteTransitDays,
	"Sikkim":            remoteTransitDays,
	"Tripura":           remoteTransitDays,
	"Andaman And Nicobar Islands": remoteTransitDays,
	"Lakshadweep":                 remoteTransitDays,
	"Ladakh":                      remoteTransitDays,
	"Jammu And Kashmir":           remoteTransitDays,
}

type stateLookup interface {
	LookupState(ctx context.Context, pincode string) (string, error)
}

// Estimator produces a best-effort expected delivery date for a pincode.
// Estimation never blocks an order: any lookup failure yields no estimate
// rather than an error.
type Estimator struct {
	lookup stateLookup
	logger *logger.Logger
}

// NewEstimator builds the delivery estimator.
func NewEstimator(lookup stateLookup, logg *logger.Logger) (*Estimator, error) {
	if lookup == nil {
		return nil, fmt.Errorf("pincode lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Estimator{lookup: lookup, logger: logg}, nil
}

// Estimate returns the expected delivery timestamp, or nil when the
// pincode is malformed or the lookup fails.
func (e *Estimator) Estimate(ctx context.Context, pincode string, now time.Time) *time.Time {
	if !validPincode(pincode) {
		return nil
	}

	if _, ok := metroPrefixes[pincode[:3]]; ok {
		return deliveryDate(now, metroTransitDays)
	}

	state, err := e.lookup.LookupState(ctx, pincode)
	if err != nil {
		ctx = e.logger.WithFields(ctx, map[string]any{"pincode": pincode})
		e.logger.Error(ctx, "pincode lookup failed, skipping delivery estimate", err)
		return nil
	}

	days, ok := stateTransitDays[state]
	if !ok {
		days = defaultTransitDays
	}
	return deliveryDate(now, days)
}

func deliveryDate(now time.Time, days int) *time.Time {
	at := now.AddDate(0, 0, days)
	return &at
}

func validPincode(pincode string) bool {
	if len(pincode) != pincodeDigitsNeeded {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
