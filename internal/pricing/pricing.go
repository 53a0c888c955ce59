package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

// Line is one cart position priced by the engine.
type Line struct {
	Product models.Product
	Qty     int
}

// Quote is the result of applying a coupon to a cart total.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Payable  decimal.Decimal
}

// Rounded returns the quote with all amounts rounded to two decimal
// places, half up. Rounding happens only at the persistence boundary.
func (q Quote) Rounded() Quote {
	return Quote{
		Subtotal: q.Subtotal.Round(2),
		Discount: q.Discount.Round(2),
		Payable:  q.Payable.Round(2),
	}
}

// EffectiveUnitPrice returns the deal price while the deal is live,
// otherwise the list price.
func EffectiveUnitPrice(product models.Product, deal *models.Deal, now time.Time) decimal.Decimal {
	if deal != nil && deal.ProductID == product.ID && deal.LiveAt(now) {
		return deal.DealPrice
	}
	return product.Price
}

// CartTotal sums effective price times quantity across lines. An empty
// cart totals zero.
func CartTotal(lines []Line, dealByProduct map[uuid.UUID]*models.Deal, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		deal := dealByProduct[line.Product.ID]
		unit := EffectiveUnitPrice(line.Product, deal, now)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return total
}

// ApplyCoupon computes the discounted quote for a total. The coupon must
// be active and inside its validity window at the supplied clock.
func ApplyCoupon(total decimal.Decimal, coupon *models.Coupon, now time.Time) (Quote, error) {
	if coupon == nil {
		return Quote{}, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon not found")
	}
	if !coupon.IsActive {
		return Quote{}, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon is not active")
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo) {
		return Quote{}, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon is outside its validity window")
	}
	if coupon.Percent < 0 || coupon.Percent > 100 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon percent out of range")
	}

	discount := total.Mul(decimal.NewFromInt(int64(coupon.Percent))).Div(decimal.NewFromInt(100))
	payable := total.Sub(discount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	return Quote{
		Subtotal: total,
		Discount: discount,
		Payable:  payable,
	}, nil
}

// NoCoupon returns the identity quote for a total.
func NoCoupon(total decimal.Decimal) Quote {
	return Quote{
		Subtotal: total,
		Discount: decimal.Zero,
		Payable:  total,
	}
}
