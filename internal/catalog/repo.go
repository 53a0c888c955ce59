package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	"myshop-backend/pkg/pagination"
)

// Repository wires together product and category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product detail with its category.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindManyByIDs loads products keyed by id.
func (r *Repository) FindManyByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies a partial update to a product row.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteProduct removes a product by ID.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// ListCategories returns every category ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindCategoryBySlug resolves one category.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// ListProducts returns one cursor page of active products matching the
// filters, newest first.
func (r *Repository) ListProducts(ctx context.Context, input ListInput) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("products.is_active = ?", true)

	filter := input.Filters
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		qb = qb.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", slug)
	}
	if filter.PriceMin != nil {
		qb = qb.Where("products.price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		qb = qb.Where("products.price <= ?", *filter.PriceMax)
	}
	if filter.BestDeal != nil {
		qb = qb.Where("products.is_best_deal = ?", *filter.BestDeal)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(products.title) LIKE ? OR LOWER(products.description) LIKE ?)", pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = qb.Order("products.created_at DESC").
		Order("products.id DESC").
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
