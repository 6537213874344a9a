package models

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/billsync/billsync_backend/utils"
)

// Stock movements always run inside the invoice transaction with the product
// rows locked FOR UPDATE, so two concurrent invoices for the same product
// serialize at the database even when the redis lock is unavailable.

func lockProductForUpdate(ctx context.Context, tx *gorm.DB, productId int) (*Product, error) {
	var product Product
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", productId).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFound(fmt.Sprintf("product %d not found", productId))
		}
		return nil, err
	}
	return &product, nil
}

// ApplyInvoiceStock decrements stock for every invoice line, failing the
// whole batch when any product lacks sufficient quantity.
func ApplyInvoiceStock(ctx context.Context, tx *gorm.DB, items []InvoiceItem) error {
	for _, item := range items {
		product, err := lockProductForUpdate(ctx, tx, item.ProductId)
		if err != nil {
			return err
		}
		if product.StockQuantity < item.Quantity {
			return utils.Conflict(fmt.Sprintf(
				"insufficient stock for %s: have %d, need %d",
				product.Name, product.StockQuantity, item.Quantity))
		}

		err = tx.WithContext(ctx).Model(&Product{}).
			Where("id = ?", product.ID).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ReleaseInvoiceStock is the exact inverse of ApplyInvoiceStock: it adds each
// line's quantity back. Missing products are skipped so an invoice whose
// product was force-removed can still be deleted.
func ReleaseInvoiceStock(ctx context.Context, tx *gorm.DB, items []InvoiceItem) error {
	for _, item := range items {
		_, err := lockProductForUpdate(ctx, tx, item.ProductId)
		if err != nil {
			if utils.KindOf(err) == utils.KindNotFound {
				continue
			}
			return err
		}

		err = tx.WithContext(ctx).Model(&Product{}).
			Where("id = ?", item.ProductId).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
