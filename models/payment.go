package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/config"
	"github.com/billsync/billsync_backend/utils"
)

// Payment tracks one gateway order (or payment link) raised for an invoice.
type Payment struct {
	ID                int             `gorm:"primaryKey" json:"id"`
	InvoiceId         int             `gorm:"not null;index" json:"invoice_id"`
	Invoice           *Invoice        `gorm:"foreignKey:InvoiceId" json:"-"`
	RazorpayOrderId   string          `gorm:"size:100;not null;uniqueIndex" json:"razorpay_order_id"`
	RazorpayPaymentId string          `gorm:"size:100" json:"razorpay_payment_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string          `gorm:"size:10;not null;default:INR" json:"currency"`
	Status            PaymentStatus   `gorm:"size:20;not null;default:created" json:"status"`
	Method            string          `gorm:"size:30" json:"method"`
	RawPayload        string          `gorm:"type:text" json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func CreatePaymentRecord(ctx context.Context, db *gorm.DB, invoiceId int, orderId string, amount decimal.Decimal, currency string, rawPayload string) (*Payment, error) {
	payment := Payment{
		InvoiceId:       invoiceId,
		RazorpayOrderId: orderId,
		Amount:          amount,
		Currency:        currency,
		Status:          PaymentStatusCreated,
		RawPayload:      rawPayload,
	}
	if err := db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// PaymentWebhookUpdate is the distilled gateway event the webhook handler
// extracts from a verified payload.
type PaymentWebhookUpdate struct {
	OrderId    string
	PaymentId  string
	Method     string
	Status     PaymentStatus
	Amount     *decimal.Decimal
	RawPayload string
}

// ApplyPaymentWebhook records a gateway event against the matching payment
// and settles the parent invoice when the money is in. Events for orders we
// never raised are acknowledged and dropped, the gateway retries otherwise.
func ApplyPaymentWebhook(ctx context.Context, db *gorm.DB, update PaymentWebhookUpdate) error {
	logger := config.GetLogger()

	var payment Payment
	err := db.WithContext(ctx).
		Where("razorpay_order_id = ?", update.OrderId).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.WithFields(logrus.Fields{
				"module":   "Payment",
				"funcName": "ApplyPaymentWebhook",
				"orderId":  update.OrderId,
			}).Warn("webhook for unknown order, ignoring")
			return nil
		}
		return err
	}

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	// Order-level events carry no payment entity; keep the last known status.
	if update.Status != "" {
		payment.Status = update.Status
	}
	if update.PaymentId != "" {
		payment.RazorpayPaymentId = update.PaymentId
	}
	if update.Method != "" {
		payment.Method = update.Method
	}
	if update.Amount != nil {
		payment.Amount = update.Amount.Round(2)
	}
	if update.RawPayload != "" {
		payment.RawPayload = update.RawPayload
	}
	if err := tx.Save(&payment).Error; err != nil {
		return err
	}

	if update.Status.IsSettled() {
		err := tx.Model(&Invoice{}).
			Where("id = ?", payment.InvoiceId).
			Update("status", InvoiceStatusPaid).Error
		if err != nil {
			return err
		}
	}

	return tx.Commit().Error
}

func GetPaymentByOrderId(ctx context.Context, db *gorm.DB, orderId string) (*Payment, error) {
	var payment Payment
	err := db.WithContext(ctx).
		Where("razorpay_order_id = ?", orderId).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NotFound("payment not found")
		}
		return nil, err
	}
	return &payment, nil
}
