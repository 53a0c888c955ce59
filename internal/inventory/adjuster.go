package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "myshop-backend/pkg/errors"
)

// Adjustment is one product/quantity pair to apply.
type Adjustment struct {
	ProductID uuid.UUID
	Qty       int
}

// Adjuster mutates product stock inside a caller-held transaction.
type Adjuster interface {
	Decrement(ctx context.Context, tx *gorm.DB, items []Adjustment) error
	Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (crossedZero bool, err error)
}

type adjuster struct{}

// NewAdjuster returns the stock adjuster.
func NewAdjuster() Adjuster {
	return adjuster{}
}

// Decrement applies each adjustment as a single conditional update. A row
// that matches nothing means the product is missing or short on stock, and
// the whole transaction must roll back.
func (adjuster) Decrement(ctx context.Context, tx *gorm.DB, items []Adjustment) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}
	for _, item := range items {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
		}
		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock = stock - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock >= ?
		`, item.Qty, item.ProductID, item.Qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}
	return nil
}

// Restock raises stock and reports whether the product came back from zero,
// which is the trigger for restock alert emails.
func (adjuster) Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for restock")
	}
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}

	var before int
	err := tx.WithContext(ctx).
		Raw(`SELECT stock FROM products WHERE id = ?`, productID).
		Scan(&before).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock")
	}
	if res.RowsAffected == 0 {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return before == 0, nil
}
