package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/utils"
)

type Product struct {
	ID            int             `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Sku           string          `gorm:"size:50;not null;uniqueIndex" json:"sku"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"purchase_price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	MinStockLevel int             `gorm:"not null;default:10" json:"min_stock_level"`
	Category      string          `gorm:"size:50" json:"category"`
	Unit          string          `gorm:"size:20;not null;default:piece" json:"unit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type NewProduct struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Sku           string           `json:"sku" binding:"required"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	StockQuantity int              `json:"stock_quantity"`
	MinStockLevel *int             `json:"min_stock_level"`
	Category      string           `json:"category"`
	Unit          string           `json:"unit"`
}

type UpdateProduct struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Sku           *string          `json:"sku"`
	Price         *decimal.Decimal `json:"price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	StockQuantity *int             `json:"stock_quantity"`
	MinStockLevel *int             `json:"min_stock_level"`
	Category      *string          `json:"category"`
	Unit          *string          `json:"unit"`
}

func (input *NewProduct) validate(ctx context.Context, db *gorm.DB) error {
	if input.Price.IsNegative() {
		return utils.Invalid("price cannot be negative")
	}
	if input.PurchasePrice != nil && input.PurchasePrice.IsNegative() {
		return utils.Invalid("purchase_price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return utils.Invalid("stock_quantity cannot be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, db, "sku", input.Sku, 0); err != nil {
		return err
	}
	return nil
}

func CreateProduct(ctx context.Context, db *gorm.DB, input NewProduct) (*Product, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}

	product := Product{
		Name:          input.Name,
		Description:   input.Description,
		Sku:           input.Sku,
		Price:         input.Price.Round(2),
		PurchasePrice: utils.DereferencePtr(input.PurchasePrice).Round(2),
		StockQuantity: input.StockQuantity,
		MinStockLevel: utils.DereferencePtr(input.MinStockLevel, 10),
		Category:      input.Category,
		Unit:          input.Unit,
	}
	if product.Unit == "" {
		product.Unit = "piece"
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (input *UpdateProduct) validate(ctx context.Context, db *gorm.DB, id int) error {
	if input.Price != nil && input.Price.IsNegative() {
		return utils.Invalid("price cannot be negative")
	}
	if input.PurchasePrice != nil && input.PurchasePrice.IsNegative() {
		return utils.Invalid("purchase_price cannot be negative")
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return utils.Invalid("stock_quantity cannot be negative")
	}
	if input.Sku != nil {
		if err := utils.ValidateUnique[Product](ctx, db, "sku", *input.Sku, id); err != nil {
			return err
		}
	}
	return nil
}

func UpdateProductById(ctx context.Context, db *gorm.DB, id int, input UpdateProduct) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Sku != nil {
		product.Sku = *input.Sku
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.PurchasePrice != nil {
		product.PurchasePrice = input.PurchasePrice.Round(2)
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.MinStockLevel != nil {
		product.MinStockLevel = *input.MinStockLevel
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}

	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProductById refuses to delete a product that any invoice line still
// references, so historical invoices keep their product links intact.
func DeleteProductById(ctx context.Context, db *gorm.DB, id int) error {
	product, err := utils.FetchModel[Product](ctx, db, id)
	if err != nil {
		return err
	}

	refs, err := utils.ResourceCountWhere[InvoiceItem](ctx, db, "product_id = ?", id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return utils.Conflict("product is referenced by existing invoices")
	}

	return db.WithContext(ctx).Delete(product).Error
}

func GetProduct(ctx context.Context, db *gorm.DB, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, db, id)
}

func PaginateProducts(ctx context.Context, db *gorm.DB, page int, perPage int) ([]*Product, *Pagination, error) {
	query := db.Model(&Product{}).Order("id ASC")
	return FetchPage[Product](ctx, query, page, perPage)
}
