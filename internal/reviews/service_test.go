package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"myshop-backend/pkg/enums"
	pkgerrors "myshop-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL
		)`,
		`CREATE TABLE reviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			comment TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			UNIQUE (user_id, product_id)
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, status enums.OrderStatus) {
	t.Helper()
	orderID := uuid.New()
	if err := db.Exec(`INSERT INTO orders (id, user_id, status) VALUES (?, ?, ?)`,
		orderID, userID, status.String()).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if err := db.Exec(`INSERT INTO order_items (id, order_id, product_id) VALUES (?, ?, ?)`,
		uuid.New(), orderID, productID).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSubmitRequiresDeliveredPurchase(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	_, err := svc.Submit(ctx, userID, productID, Input{Rating: 5})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotEligible {
		t.Fatalf("unreviewed purchase should be rejected, got %v", err)
	}

	// A shipped order is not enough.
	seedDeliveredOrder(t, db, userID, productID, enums.OrderStatusShipped)
	_, err = svc.Submit(ctx, userID, productID, Input{Rating: 5})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotEligible {
		t.Fatalf("undelivered purchase should be rejected, got %v", err)
	}

	seedDeliveredOrder(t, db, userID, productID, enums.OrderStatusDelivered)
	review, err := svc.Submit(ctx, userID, productID, Input{Rating: 4, Comment: "solid"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.Rating != 4 || review.Comment == nil || *review.Comment != "solid" {
		t.Fatalf("unexpected review %+v", review)
	}
}

func TestSubmitRatingBounds(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), uuid.New(), uuid.New(), Input{Rating: rating})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d should fail validation, got %v", rating, err)
		}
	}
}

func TestResubmitUpdatesExistingReview(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()
	seedDeliveredOrder(t, db, userID, productID, enums.OrderStatusDelivered)

	first, err := svc.Submit(ctx, userID, productID, Input{Rating: 2, Comment: "meh"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := svc.Submit(ctx, userID, productID, Input{Rating: 5, Comment: "grew on me"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmit created a new row: %s vs %s", second.ID, first.ID)
	}

	summary, err := svc.Summarize(ctx, productID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Count != 1 {
		t.Fatalf("expected a single review, got %d", summary.Count)
	}
	if summary.Average.String() != "5" {
		t.Fatalf("unexpected average %s", summary.Average)
	}
}

func TestSummarizeAveragesAcrossUsers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := uuid.New()

	for _, rating := range []int{5, 4, 2} {
		userID := uuid.New()
		seedDeliveredOrder(t, db, userID, productID, enums.OrderStatusDelivered)
		if _, err := svc.Submit(ctx, userID, productID, Input{Rating: rating}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	summary, err := svc.Summarize(ctx, productID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Count != 3 {
		t.Fatalf("unexpected count %d", summary.Count)
	}
	if summary.Average.String() != "3.7" {
		t.Fatalf("unexpected average %s", summary.Average)
	}
	if len(summary.Recent) != 3 {
		t.Fatalf("unexpected recent list %+v", summary.Recent)
	}
}

func TestSummarizeEmptyProduct(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	summary, err := svc.Summarize(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Count != 0 || !summary.Average.IsZero() || len(summary.Recent) != 0 {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
}
