package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/enums"
	"myshop-backend/pkg/pagination"
)

// Repository exposes order and request persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts an order with its lines.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with lines and shipping address.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Address").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUser loads an order restricted to its owner.
func (r *Repository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Address").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByGatewayOrderID locates the order a payment gateway callback refers to.
func (r *Repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilters narrows admin order listings.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	UserID        *uuid.UUID
}

// List returns orders newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Order, string, error) {
	pageSize := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items")

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// UpdateFields applies a partial update to an order.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// MarkPaidByGatewayOrder claims a pending gateway order as paid. The
// conditional predicate makes confirmation idempotent under races.
func (r *Repository) MarkPaidByGatewayOrder(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("gateway_order_id = ? AND payment_status = ?", gatewayOrderID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status":     enums.PaymentStatusPaid,
			"status":             enums.OrderStatusProcessing,
			"gateway_payment_id": gatewayPaymentID,
		})
	return res.RowsAffected, res.Error
}

// Cancellation requests

func (r *Repository) CreateCancellationRequest(ctx context.Context, request *models.CancellationRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *Repository) FindCancellationByOrder(ctx context.Context, orderID uuid.UUID) (*models.CancellationRequest, error) {
	var request models.CancellationRequest
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items").
		Where("order_id = ?", orderID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) FindCancellationByID(ctx context.Context, id uuid.UUID) (*models.CancellationRequest, error) {
	var request models.CancellationRequest
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) ListCancellations(ctx context.Context, status *enums.RequestStatus) ([]models.CancellationRequest, error) {
	query := r.db.WithContext(ctx).
		Preload("Order").
		Order("created_at ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var requests []models.CancellationRequest
	err := query.Find(&requests).Error
	return requests, err
}

// ClaimCancellation moves a pending cancellation request to the given
// decision. Returns the number of rows claimed.
func (r *Repository) ClaimCancellation(ctx context.Context, id uuid.UUID, decision enums.RequestStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CancellationRequest{}).
		Where("id = ? AND status = ?", id, enums.RequestStatusPending).
		Update("status", decision)
	return res.RowsAffected, res.Error
}

// Return requests

func (r *Repository) CreateReturnRequest(ctx context.Context, request *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *Repository) FindReturnByOrder(ctx context.Context, orderID uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items").
		Where("order_id = ?", orderID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) FindReturnByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) ListReturns(ctx context.Context, status *enums.RequestStatus) ([]models.ReturnRequest, error) {
	query := r.db.WithContext(ctx).
		Preload("Order").
		Order("created_at ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var requests []models.ReturnRequest
	err := query.Find(&requests).Error
	return requests, err
}

// ClaimReturn moves a pending return request to the given decision.
func (r *Repository) ClaimReturn(ctx context.Context, id uuid.UUID, decision enums.RequestStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, enums.RequestStatusPending).
		Update("status", decision)
	return res.RowsAffected, res.Error
}

// MarkRefundProcessed flags an approved bank-method return as paid out.
func (r *Repository) MarkRefundProcessed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ? AND refund_processed = ?", id, enums.RequestStatusApproved, false).
		Update("refund_processed", true)
	return res.RowsAffected, res.Error
}

// ListUserOrders returns the buyer's orders newest first.
func (r *Repository) ListUserOrders(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, string, error) {
	return r.List(ctx, ListFilters{UserID: &userID}, page)
}

// SetDelivered stamps delivered_at exactly once.
func (r *Repository) SetDelivered(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND delivered_at IS NULL", id).
		Updates(map[string]any{
			"status":       enums.OrderStatusDelivered,
			"delivered_at": at,
		})
	return res.RowsAffected, res.Error
}
