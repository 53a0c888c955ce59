package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"myshop-backend/internal/cart"
	"myshop-backend/internal/inventory"
	"myshop-backend/internal/orders"
	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/razorpay"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			category_id TEXT NOT NULL,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT,
			price TEXT NOT NULL,
			market_price TEXT,
			stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			highlights TEXT,
			is_best_deal BOOLEAN NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE cart_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			coupon_id TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE cart_items (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			qty INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			UNIQUE (cart_id, product_id)
		)`,
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			address_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			payment_mode TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			subtotal TEXT NOT NULL,
			discount TEXT NOT NULL DEFAULT '0',
			total TEXT NOT NULL,
			coupon_code TEXT,
			gateway_order_id TEXT UNIQUE,
			gateway_payment_id TEXT,
			expected_delivery_at TIMESTAMP,
			delivered_at TIMESTAMP,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			title TEXT NOT NULL,
			unit_price TEXT NOT NULL,
			qty INTEGER NOT NULL,
			created_at TIMESTAMP
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type dbProducts struct {
	db *gorm.DB
}

func (p dbProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := p.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type noDeals struct{}

func (noDeals) LiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]*models.Deal, error) {
	return map[uuid.UUID]*models.Deal{}, nil
}

type noCoupons struct{}

func (noCoupons) Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon not found")
}

func (noCoupons) ResolveByID(ctx context.Context, id uuid.UUID, now time.Time) (*models.Coupon, error) {
	return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon not found")
}

type stubAddresses struct {
	address *models.Address
}

func (a stubAddresses) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if a.address == nil || a.address.ID != addressID || a.address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return a.address, nil
}

type stubGateway struct {
	created []razorpay.OrderCreateParams
	fail    error
}

func (g *stubGateway) CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.GatewayOrder, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	g.created = append(g.created, params)
	return &razorpay.GatewayOrder{
		ID:          "order_gw_" + uuid.NewString()[:8],
		AmountPaise: params.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    "INR",
		Receipt:     params.Receipt,
		Status:      "created",
	}, nil
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

type fixedEstimator struct {
	at *time.Time
}

func (e fixedEstimator) Estimate(ctx context.Context, pincode string, now time.Time) *time.Time {
	return e.at
}

type checkoutFixture struct {
	db      *gorm.DB
	carts   cart.Service
	gateway *stubGateway
	svc     Service
	userID  uuid.UUID
	address *models.Address
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db := newTestDB(t)
	userID := uuid.New()
	now := func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	carts, err := cart.NewService(cart.ServiceParams{
		Repo:     cart.NewRepository(db),
		Products: dbProducts{db: db},
		Deals:    noDeals{},
		Coupons:  noCoupons{},
		Now:      now,
	})
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}

	address := &models.Address{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    "Home",
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
		Phone:   "9876543210",
	}

	eta := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	gateway := &stubGateway{}
	svc, err := NewService(ServiceParams{
		Carts:     carts,
		Addresses: stubAddresses{address: address},
		Orders:    orders.NewRepository(db),
		Stock:     inventory.NewAdjuster(),
		Gateway:   gateway,
		Estimator: fixedEstimator{at: &eta},
		Tx:        dbTxRunner{db: db},
		Now:       now,
	})
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}

	return &checkoutFixture{db: db, carts: carts, gateway: gateway, svc: svc, userID: userID, address: address}
}

func (f *checkoutFixture) seedProduct(t *testing.T, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Title:      "Desk Lamp",
		Slug:       "desk-lamp-" + uuid.NewString()[:8],
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *checkoutFixture) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var stock int
	if err := f.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Pluck("stock", &stock).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func TestPlaceOrderFailsClosedOnLapsedCoupon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "100.00", 5)

	if _, err := f.carts.AddItem(ctx, f.userID, product.ID, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	// A coupon applied earlier has since lapsed; the resolver no longer
	// recognises it.
	if err := f.db.Exec(`UPDATE cart_records SET coupon_id = ? WHERE user_id = ?`,
		uuid.New(), f.userID).Error; err != nil {
		t.Fatalf("attach coupon: %v", err)
	}

	_, err := f.svc.PlaceOrder(ctx, f.userID, Input{
		AddressID:   f.address.ID,
		PaymentMode: enums.PaymentModeCOD,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCouponInvalid {
		t.Fatalf("checkout should fail closed on a lapsed coupon, got %v", err)
	}

	var orderCount int64
	if err := f.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("order created at full price despite invalid coupon: %d", orderCount)
	}
	if got := f.stockOf(t, product.ID); got != 5 {
		t.Fatalf("stock touched despite failed checkout: %d", got)
	}
	if _, err := f.carts.ActiveRecord(ctx, f.userID); err != nil {
		t.Fatalf("cart should stay active: %v", err)
	}
}

func TestPlaceOrderCOD(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "150.00", 10)

	if _, err := f.carts.AddItem(ctx, f.userID, product.ID, 3); err != nil {
		t.Fatalf("add item: %v", err)
	}

	result, err := f.svc.PlaceOrder(ctx, f.userID, Input{
		AddressID:   f.address.ID,
		PaymentMode: enums.PaymentModeCOD,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	order := result.Order
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusCOD {
		t.Fatalf("unexpected payment status %s", order.PaymentStatus)
	}
	if !order.Total.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("unexpected total %s", order.Total)
	}
	if len(order.Items) != 1 || order.Items[0].Qty != 3 {
		t.Fatalf("unexpected items %+v", order.Items)
	}
	if order.ExpectedDeliveryAt == nil {
		t.Fatal("missing delivery estimate")
	}
	if result.GatewayOrder != nil {
		t.Fatal("cod order must not touch the gateway")
	}

	if got := f.stockOf(t, product.ID); got != 7 {
		t.Fatalf("stock not decremented, got %d", got)
	}
	if _, err := f.carts.ActiveRecord(ctx, f.userID); err == nil {
		t.Fatal("cart should have converted")
	}
}

func TestPlaceOrderCODInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "150.00", 2)

	if _, err := f.carts.AddItem(ctx, f.userID, product.ID, 3); err != nil {
		t.Fatalf("add item: %v", err)
	}

	_, err := f.svc.PlaceOrder(ctx, f.userID, Input{
		AddressID:   f.address.ID,
		PaymentMode: enums.PaymentModeCOD,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if got := f.stockOf(t, product.ID); got != 2 {
		t.Fatalf("stock mutated on failed checkout: %d", got)
	}
	// Cart survives for another attempt.
	if _, err := f.carts.ActiveRecord(ctx, f.userID); err != nil {
		t.Fatalf("cart should still be active: %v", err)
	}
	var orderCount int64
	if err := f.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("order persisted despite rollback: %d", orderCount)
	}
}

func TestPlaceOrderGatewayKeepsCartAndStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "499.00", 5)

	if _, err := f.carts.AddItem(ctx, f.userID, product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	result, err := f.svc.PlaceOrder(ctx, f.userID, Input{
		AddressID:   f.address.ID,
		PaymentMode: enums.PaymentModeRazorpay,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if result.GatewayOrder == nil || result.KeyID != "rzp_test_key" {
		t.Fatalf("missing gateway handoff: %+v", result)
	}
	if result.Order.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", result.Order.Status)
	}
	if result.Order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("unexpected payment status %s", result.Order.PaymentStatus)
	}
	if result.Order.GatewayOrderID == nil || *result.Order.GatewayOrderID != result.GatewayOrder.ID {
		t.Fatalf("gateway order id not persisted: %+v", result.Order)
	}
	if len(f.gateway.created) != 1 || !f.gateway.created[0].Amount.Equal(decimal.RequireFromString("499.00")) {
		t.Fatalf("unexpected gateway call %+v", f.gateway.created)
	}

	// Stock and cart are untouched until payment confirmation.
	if got := f.stockOf(t, product.ID); got != 5 {
		t.Fatalf("stock mutated before payment: %d", got)
	}
	if _, err := f.carts.ActiveRecord(ctx, f.userID); err != nil {
		t.Fatalf("cart should still be active: %v", err)
	}
}

func TestPlaceOrderGatewayFailureCreatesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "499.00", 5)
	f.gateway.fail = pkgerrors.New(pkgerrors.CodeDependency, "gateway down")

	if _, err := f.carts.AddItem(ctx, f.userID, product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := f.svc.PlaceOrder(ctx, f.userID, Input{
		AddressID:   f.address.ID,
		PaymentMode: enums.PaymentModeRazorpay,
	}); err == nil {
		t.Fatal("expected gateway error")
	}

	var orderCount int64
	if err := f.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("order persisted despite gateway failure: %d", orderCount)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), f.userID, Input{
		AddressID:   f.address.ID,
		PaymentMode: enums.PaymentModeCOD,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("empty cart should 404, got %v", err)
	}
}
