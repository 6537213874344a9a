package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/utils"
)

// TaxRate is the flat GST rate applied to every invoice subtotal.
var TaxRate = decimal.NewFromFloat(0.18)

const dueDateDefaultDays = 30

type Invoice struct {
	ID            int             `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"size:50;not null;uniqueIndex" json:"invoice_number"`
	CustomerId    int             `gorm:"not null;index" json:"customer_id"`
	Customer      *Customer       `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
	InvoiceDate   time.Time       `gorm:"type:date;not null" json:"invoice_date"`
	DueDate       time.Time       `gorm:"type:date;not null" json:"due_date"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status        InvoiceStatus   `gorm:"size:20;not null;default:pending" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type InvoiceItem struct {
	ID         int             `gorm:"primaryKey" json:"id"`
	InvoiceId  int             `gorm:"not null;index" json:"invoice_id"`
	ProductId  int             `gorm:"not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
}

type NewInvoiceItem struct {
	ProductId int              `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type NewInvoice struct {
	CustomerId    int              `json:"customer_id" binding:"required"`
	InvoiceNumber string           `json:"invoice_number"`
	InvoiceDate   string           `json:"invoice_date" binding:"required"`
	DueDate       string           `json:"due_date"`
	Status        InvoiceStatus    `json:"status"`
	Notes         string           `json:"notes"`
	Items         []NewInvoiceItem `json:"items" binding:"required,min=1,dive"`
}

type UpdateInvoice struct {
	CustomerId  *int              `json:"customer_id"`
	InvoiceDate *string           `json:"invoice_date"`
	DueDate     *string           `json:"due_date"`
	Status      *InvoiceStatus    `json:"status"`
	Notes       *string           `json:"notes"`
	Items       *[]NewInvoiceItem `json:"items"`
}

// resolveInvoiceDates parses and validates the invoice/due date pair.
// The invoice date must be today's date; an omitted due date defaults to
// 30 days out, an explicit one must fall strictly after the invoice date.
func resolveInvoiceDates(invoiceDate string, dueDate string, today time.Time) (time.Time, time.Time, error) {
	invDate, err := utils.ParseDateOnly(invoiceDate)
	if err != nil {
		return time.Time{}, time.Time{}, utils.Invalid("invoice_date must be in YYYY-MM-DD format")
	}
	if !utils.SameDate(invDate, today) {
		return time.Time{}, time.Time{}, utils.Invalid("invoice_date must be today's date")
	}

	if dueDate == "" {
		return invDate, invDate.AddDate(0, 0, dueDateDefaultDays), nil
	}
	due, err := utils.ParseDateOnly(dueDate)
	if err != nil {
		return time.Time{}, time.Time{}, utils.Invalid("due_date must be in YYYY-MM-DD format")
	}
	if !due.After(invDate) {
		return time.Time{}, time.Time{}, utils.Invalid("due_date must be after invoice_date")
	}
	return invDate, due, nil
}

// buildInvoiceItems resolves line items against their products and prices
// each line, falling back to the catalog price when no unit price is given.
// Runs inside the caller's transaction so the product rows are the locked ones.
func buildInvoiceItems(ctx context.Context, tx *gorm.DB, inputs []NewInvoiceItem) ([]InvoiceItem, error) {
	items := make([]InvoiceItem, 0, len(inputs))
	for _, input := range inputs {
		product, err := lockProductForUpdate(ctx, tx, input.ProductId)
		if err != nil {
			return nil, err
		}

		unitPrice := product.Price
		if input.UnitPrice != nil {
			if input.UnitPrice.IsNegative() {
				return nil, utils.Invalid("unit_price cannot be negative")
			}
			unitPrice = input.UnitPrice.Round(2)
		}

		items = append(items, InvoiceItem{
			ProductId:  product.ID,
			Quantity:   input.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2),
		})
	}
	return items, nil
}

// computeInvoiceTotals derives subtotal, tax and grand total from priced lines.
func computeInvoiceTotals(items []InvoiceItem) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	return subtotal, tax, subtotal.Add(tax)
}

// GenerateInvoiceNumber produces a unique-enough human-readable number.
// Uniqueness is still enforced by the DB index; collisions surface as errors.
func GenerateInvoiceNumber() string {
	suffix, err := utils.RandomDigits(4)
	if err != nil {
		suffix = fmt.Sprintf("%04d", time.Now().Nanosecond()%10000)
	}
	return fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102-150405"), suffix)
}

func (input *NewInvoice) validate(ctx context.Context, db *gorm.DB) error {
	if input.Status != "" && !input.Status.IsValid() {
		return utils.Invalid("invalid invoice status")
	}
	if err := utils.ValidateResourceId[Customer](ctx, db, input.CustomerId); err != nil {
		if err == utils.ErrorRecordNotFound {
			return utils.NotFound("customer not found")
		}
		return err
	}
	if input.InvoiceNumber != "" {
		if err := utils.ValidateUnique[Invoice](ctx, db, "invoice_number", input.InvoiceNumber, 0); err != nil {
			return err
		}
	}
	return nil
}

// CreateInvoice prices the lines, decrements stock and writes the invoice in
// one transaction. Any failure rolls everything back, so an invoice either
// exists with its full stock effect or not at all.
func CreateInvoice(ctx context.Context, db *gorm.DB, input NewInvoice) (*Invoice, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}

	invDate, dueDate, err := resolveInvoiceDates(input.InvoiceDate, input.DueDate, utils.Today())
	if err != nil {
		return nil, err
	}

	invoiceNumber := input.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = GenerateInvoiceNumber()
	}
	status := input.Status
	if status == "" {
		status = InvoiceStatusPending
	}

	release, err := utils.ObtainStockLock(ctx, "Invoice", "CreateInvoice")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.WithContext(ctx).Begin()
	// Always rollback on early-return or panic to avoid leaking row locks.
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	items, err := buildInvoiceItems(ctx, tx, input.Items)
	if err != nil {
		return nil, err
	}
	if err := ApplyInvoiceStock(ctx, tx, items); err != nil {
		return nil, err
	}

	subtotal, tax, total := computeInvoiceTotals(items)
	invoice := Invoice{
		InvoiceNumber: invoiceNumber,
		CustomerId:    input.CustomerId,
		InvoiceDate:   invDate,
		DueDate:       dueDate,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		TotalAmount:   total,
		Status:        status,
		Notes:         input.Notes,
		Items:         items,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetInvoice(ctx, db, invoice.ID)
}

// UpdateInvoice patches header fields and, when a new item list is supplied,
// swaps the lines atomically: the old lines' stock is restored first, then
// the new lines are priced and applied, then totals are recomputed.
func UpdateInvoiceById(ctx context.Context, db *gorm.DB, id int, input UpdateInvoice) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, db, id, "Items")
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NotFound("invoice not found")
		}
		return nil, err
	}

	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, db, *input.CustomerId); err != nil {
			if err == utils.ErrorRecordNotFound {
				return nil, utils.NotFound("customer not found")
			}
			return nil, err
		}
		invoice.CustomerId = *input.CustomerId
	}
	if input.InvoiceDate != nil {
		dueDate := ""
		if input.DueDate != nil {
			dueDate = *input.DueDate
		}
		invDate, due, err := resolveInvoiceDates(*input.InvoiceDate, dueDate, utils.Today())
		if err != nil {
			return nil, err
		}
		invoice.InvoiceDate = invDate
		invoice.DueDate = due
	} else if input.DueDate != nil {
		due, err := utils.ParseDateOnly(*input.DueDate)
		if err != nil {
			return nil, utils.Invalid("due_date must be in YYYY-MM-DD format")
		}
		if !due.After(invoice.InvoiceDate) {
			return nil, utils.Invalid("due_date must be after invoice_date")
		}
		invoice.DueDate = due
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, utils.Invalid("invalid invoice status")
		}
		invoice.Status = *input.Status
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}

	if input.Items != nil {
		if len(*input.Items) == 0 {
			return nil, utils.Invalid("items cannot be empty")
		}
		release, err := utils.ObtainStockLock(ctx, "Invoice", "UpdateInvoiceById")
		if err != nil {
			return nil, err
		}
		defer release()
	}

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if input.Items != nil {
		if err := ReleaseInvoiceStock(ctx, tx, invoice.Items); err != nil {
			return nil, err
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&InvoiceItem{}).Error; err != nil {
			return nil, err
		}

		items, err := buildInvoiceItems(ctx, tx, *input.Items)
		if err != nil {
			return nil, err
		}
		if err := ApplyInvoiceStock(ctx, tx, items); err != nil {
			return nil, err
		}
		for i := range items {
			items[i].InvoiceId = invoice.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return nil, err
		}

		invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount = computeInvoiceTotals(items)
		invoice.Items = nil
	}

	if err := tx.Omit("Items").Save(invoice).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetInvoice(ctx, db, invoice.ID)
}

// DeleteInvoiceById restores the stock every line consumed, then removes the
// invoice and its lines. Deleting then recreating an invoice leaves stock
// levels exactly where they started.
func DeleteInvoiceById(ctx context.Context, db *gorm.DB, id int) error {
	invoice, err := utils.FetchModel[Invoice](ctx, db, id, "Items")
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return utils.NotFound("invoice not found")
		}
		return err
	}

	release, err := utils.ObtainStockLock(ctx, "Invoice", "DeleteInvoiceById")
	if err != nil {
		return err
	}
	defer release()

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := ReleaseInvoiceStock(ctx, tx, invoice.Items); err != nil {
		return err
	}
	if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&InvoiceItem{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&Invoice{}, invoice.ID).Error; err != nil {
		return err
	}

	return tx.Commit().Error
}

// MarkInvoicePaid flips an invoice to paid regardless of gateway involvement,
// covering cash and bank-transfer settlements.
func MarkInvoicePaid(ctx context.Context, db *gorm.DB, id int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, db, id)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NotFound("invoice not found")
		}
		return nil, err
	}

	err = db.WithContext(ctx).Model(invoice).Update("status", InvoiceStatusPaid).Error
	if err != nil {
		return nil, err
	}
	return GetInvoice(ctx, db, id)
}

func GetInvoice(ctx context.Context, db *gorm.DB, id int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, db, id, "Customer", "Items", "Items.Product")
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NotFound("invoice not found")
		}
		return nil, err
	}
	return invoice, nil
}

func GetInvoices(ctx context.Context, db *gorm.DB, status InvoiceStatus) ([]*Invoice, error) {
	if status != "" && !status.IsValid() {
		return nil, utils.Invalid("invalid invoice status")
	}

	query := db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []*Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
