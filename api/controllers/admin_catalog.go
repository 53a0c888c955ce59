package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"myshop-backend/api/responses"
	"myshop-backend/api/validators"
	"myshop-backend/internal/catalog"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

type createProductPayload struct {
	CategoryID  string   `json:"category_id" validate:"required,uuid"`
	Title       string   `json:"title" validate:"required"`
	Slug        string   `json:"slug" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Price       string   `json:"price" validate:"required"`
	MarketPrice *string  `json:"market_price,omitempty"`
	Stock       int      `json:"stock" validate:"min=0"`
	Highlights  []string `json:"highlights,omitempty"`
	IsBestDeal  bool     `json:"is_best_deal"`
}

type updateProductPayload struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *string  `json:"price,omitempty"`
	MarketPrice *string  `json:"market_price,omitempty"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,min=0"`
	Highlights  []string `json:"highlights,omitempty"`
	IsBestDeal  *bool    `json:"is_best_deal,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type createCategoryPayload struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

// AdminProductCreate adds a product to the catalog.
func AdminProductCreate(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin service unavailable"))
			return
		}

		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		categoryID, err := parseUUIDField(payload.CategoryID, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		price, err := parseAmountField(payload.Price, "price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		marketPrice, err := parseOptionalAmountField(payload.MarketPrice, "market_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.CreateProduct(ctx, catalog.ProductCreateInput{
			CategoryID:  categoryID,
			Title:       payload.Title,
			Slug:        payload.Slug,
			Description: payload.Description,
			Price:       price,
			MarketPrice: marketPrice,
			Stock:       payload.Stock,
			Highlights:  payload.Highlights,
			IsBestDeal:  payload.IsBestDeal,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminProductUpdate edits a product. Stock and price edits trigger the
// restock and price-drop alerts.
func AdminProductUpdate(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin service unavailable"))
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		price, err := parseOptionalAmountField(payload.Price, "price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		marketPrice, err := parseOptionalAmountField(payload.MarketPrice, "market_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(ctx, productID, catalog.ProductUpdateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Price:       price,
			MarketPrice: marketPrice,
			Stock:       payload.Stock,
			Highlights:  payload.Highlights,
			IsBestDeal:  payload.IsBestDeal,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminProductDeactivate hides a product from the storefront.
func AdminProductDeactivate(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin service unavailable"))
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeactivateProduct(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deactivated": true})
	}
}

// AdminCategoryCreate adds a category.
func AdminCategoryCreate(svc catalog.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog admin service unavailable"))
			return
		}

		var payload createCategoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category, err := svc.CreateCategory(ctx, payload.Name, payload.Slug)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func parseAmountField(raw, name string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, name+" must not be negative")
	}
	return value, nil
}

func parseOptionalAmountField(raw *string, name string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := parseAmountField(*raw, name)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
