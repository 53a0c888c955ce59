package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myshop-backend/internal/pricing"
	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

const maxLineQty = 99

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type dealFinder interface {
	LiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error)
}

type couponResolver interface {
	Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	ResolveByID(ctx context.Context, id uuid.UUID, now time.Time) (*models.Coupon, error)
}

// LineView is a priced cart line.
type LineView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	InStock   bool            `json:"in_stock"`
}

// View is the priced cart returned to clients. Coupons and deals are
// revalidated on every read; a lapsed coupon is dropped from the cart
// rather than surfaced as an error.
type View struct {
	CartID     uuid.UUID     `json:"cart_id"`
	Lines      []LineView    `json:"lines"`
	CouponCode *string       `json:"coupon_code,omitempty"`
	Quote      pricing.Quote `json:"quote"`
}

// Service exposes the shopping cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	SetItemQty(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*View, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*View, error)

	// ActiveRecord returns the raw active cart for checkout.
	ActiveRecord(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	// Price revalidates deals and coupon and prices the given record.
	// A lapsed coupon falls off the cart silently.
	Price(ctx context.Context, record *models.CartRecord, now time.Time) (*View, error)
	// PriceStrict prices the record but fails with CouponInvalid when
	// the applied coupon has lapsed. Checkout quotes with it so a stale
	// discount never turns into a silent full-price charge.
	PriceStrict(ctx context.Context, record *models.CartRecord, now time.Time) (*View, error)
	// ConvertWithTx claims the active cart inside a checkout transaction.
	ConvertWithTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productFinder
	deals    dealFinder
	coupons  couponResolver
	now      func() time.Time
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Products productFinder
	Deals    dealFinder
	Coupons  couponResolver
	Now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if params.Deals == nil {
		return nil, fmt.Errorf("deal finder required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		deals:    params.Deals,
		coupons:  params.Coupons,
		now:      params.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	record, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Price(ctx, record, s.now())
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	record, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, record.ID, productID)
	switch {
	case err == nil:
		newQty := clampQty(existing.Qty + qty)
		if err := s.repo.UpdateItemQty(ctx, existing.ID, newQty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    record.ID,
			ProductID: productID,
			Qty:       clampQty(qty),
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	return s.reload(ctx, userID)
}

func (s *service) SetItemQty(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must not be negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	record, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, record.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if err := s.repo.UpdateItemQty(ctx, existing.ID, clampQty(qty)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.reload(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	record, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.DeleteItem(ctx, record.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return s.reload(ctx, userID)
}

func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*View, error) {
	coupon, err := s.coupons.Resolve(ctx, code, s.now())
	if err != nil {
		return nil, err
	}

	record, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCoupon(ctx, record.ID, &coupon.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon")
	}
	return s.reload(ctx, userID)
}

func (s *service) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*View, error) {
	record, err := s.fetchOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCoupon(ctx, record.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove coupon")
	}
	return s.reload(ctx, userID)
}

func (s *service) ActiveRecord(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func (s *service) Price(ctx context.Context, record *models.CartRecord, now time.Time) (*View, error) {
	return s.price(ctx, record, now, true)
}

func (s *service) PriceStrict(ctx context.Context, record *models.CartRecord, now time.Time) (*View, error) {
	return s.price(ctx, record, now, false)
}

func (s *service) price(ctx context.Context, record *models.CartRecord, now time.Time, dropLapsed bool) (*View, error) {
	view := &View{CartID: record.ID, Lines: []LineView{}}

	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ProductID)
	}
	dealByProduct, err := s.deals.LiveForProducts(ctx, ids, now)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(record.Items))
	for _, item := range record.Items {
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart line missing product")
		}
		product := *item.Product
		unit := pricing.EffectiveUnitPrice(product, dealByProduct[product.ID], now)
		lines = append(lines, pricing.Line{Product: product, Qty: item.Qty})
		view.Lines = append(view.Lines, LineView{
			ProductID: product.ID,
			Title:     product.Title,
			Slug:      product.Slug,
			Qty:       item.Qty,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(item.Qty))),
			InStock:   product.Stock >= item.Qty,
		})
	}

	total := pricing.CartTotal(lines, dealByProduct, now)

	if record.CouponID == nil {
		view.Quote = pricing.NoCoupon(total).Rounded()
		return view, nil
	}

	coupon, err := s.coupons.ResolveByID(ctx, *record.CouponID, now)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeCouponInvalid {
			if !dropLapsed {
				return nil, err
			}
			// Lapsed coupons fall off the cart silently on reads.
			if err := s.repo.SetCoupon(ctx, record.ID, nil); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop lapsed coupon")
			}
			view.Quote = pricing.NoCoupon(total).Rounded()
			return view, nil
		}
		return nil, err
	}

	quote, err := pricing.ApplyCoupon(total, coupon, now)
	if err != nil {
		return nil, err
	}
	view.CouponCode = &coupon.Code
	view.Quote = quote.Rounded()
	return view, nil
}

func (s *service) ConvertWithTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	claimed, err := s.repo.WithTx(tx).MarkConverted(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
	}
	if claimed == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already checked out")
	}
	return nil
}

func (s *service) fetchOrCreate(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.CartRecord{ID: uuid.New(), UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*View, error) {
	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.Price(ctx, record, s.now())
}

func clampQty(qty int) int {
	if qty > maxLineQty {
		return maxLineQty
	}
	return qty
}
