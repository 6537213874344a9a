package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/config"
	"github.com/billsync/billsync_backend/models"
	"github.com/billsync/billsync_backend/utils"
)

// Requires a reachable MySQL configured via DB_* env vars, e.g.
//
//	INTEGRATION_TESTS=1 DB_USER=root DB_PASSWORD=testpw DB_HOST=127.0.0.1 \
//	DB_PORT=3306 DB_NAME=billsync_test go test ./models/...
func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires MySQL)")
	}

	db := config.ConnectDatabaseWithRetry()
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, ctx context.Context, db *gorm.DB, sku string, stock int) *models.Product {
	t.Helper()
	price := decimal.RequireFromString("50.00")
	cost := decimal.RequireFromString("30.00")
	product, err := models.CreateProduct(ctx, db, models.NewProduct{
		Name:          "Widget " + sku,
		Sku:           sku,
		Price:         &price,
		PurchasePrice: &cost,
		StockQuantity: stock,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return product
}

func seedCustomer(t *testing.T, ctx context.Context, db *gorm.DB, email string) *models.Customer {
	t.Helper()
	customer, _, err := models.CreateCustomer(ctx, db, models.NewCustomer{
		Name:  "Test Customer",
		Email: email,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	return customer
}

func stockOf(t *testing.T, ctx context.Context, db *gorm.DB, productId int) int {
	t.Helper()
	product, err := models.GetProduct(ctx, db, productId)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	return product.StockQuantity
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func TestInvoiceLifecycleRestoresStock(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	product := seedProduct(t, ctx, db, "LIFE-"+suffix, 10)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("life-%s@test.local", suffix))

	invoice, err := models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Items: []models.NewInvoiceItem{
			{ProductId: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if got := stockOf(t, ctx, db, product.ID); got != 7 {
		t.Fatalf("stock after create = %d, want 7", got)
	}

	// 3 * 50 = 150, tax 27, total 177
	if invoice.Subtotal.String() != "150" {
		t.Fatalf("subtotal = %s, want 150", invoice.Subtotal)
	}
	if invoice.TaxAmount.String() != "27" {
		t.Fatalf("tax = %s, want 27", invoice.TaxAmount)
	}
	if invoice.TotalAmount.String() != "177" {
		t.Fatalf("total = %s, want 177", invoice.TotalAmount)
	}
	if invoice.Status != models.InvoiceStatusPending {
		t.Fatalf("status = %s, want pending", invoice.Status)
	}

	// Swapping the item list must restore old stock before applying new lines.
	newItems := []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 5}}
	if _, err := models.UpdateInvoiceById(ctx, db, invoice.ID, models.UpdateInvoice{Items: &newItems}); err != nil {
		t.Fatalf("UpdateInvoiceById: %v", err)
	}
	if got := stockOf(t, ctx, db, product.ID); got != 5 {
		t.Fatalf("stock after update = %d, want 5", got)
	}

	if err := models.DeleteInvoiceById(ctx, db, invoice.ID); err != nil {
		t.Fatalf("DeleteInvoiceById: %v", err)
	}
	if got := stockOf(t, ctx, db, product.ID); got != 10 {
		t.Fatalf("stock after delete = %d, want 10", got)
	}
	if _, err := models.GetInvoice(ctx, db, invoice.ID); err == nil {
		t.Fatal("expected invoice to be gone after delete")
	}
}

func TestInsufficientStockLeavesNoSideEffects(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	full := seedProduct(t, ctx, db, "FULL-"+suffix, 10)
	scarce := seedProduct(t, ctx, db, "SCARCE-"+suffix, 1)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("scarce-%s@test.local", suffix))

	_, err := models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Items: []models.NewInvoiceItem{
			{ProductId: full.ID, Quantity: 2},
			{ProductId: scarce.ID, Quantity: 5},
		},
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if utils.KindOf(err) != utils.KindConflict {
		t.Fatalf("error kind = %v, want conflict", utils.KindOf(err))
	}

	// The first line must have been rolled back with the rest.
	if got := stockOf(t, ctx, db, full.ID); got != 10 {
		t.Fatalf("stock of first product = %d, want 10 (no partial decrement)", got)
	}
	if got := stockOf(t, ctx, db, scarce.ID); got != 1 {
		t.Fatalf("stock of scarce product = %d, want 1", got)
	}
}

func TestCreateInvoiceHonorsSuppliedStatus(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	product := seedProduct(t, ctx, db, "STAT-"+suffix, 10)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("stat-%s@test.local", suffix))

	invoice, err := models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Status:      models.InvoiceStatusPaid,
		Items:       []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.Status != models.InvoiceStatusPaid {
		t.Fatalf("status = %s, want paid", invoice.Status)
	}

	// A made-up status is rejected before anything is written.
	_, err = models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Status:      "settled",
		Items:       []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if got := stockOf(t, ctx, db, product.ID); got != 9 {
		t.Fatalf("stock = %d, want 9 (only the first create decrements)", got)
	}
}

func TestConcurrentInvoiceCreationSerializesStock(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	product := seedProduct(t, ctx, db, "RACE-"+suffix, 10)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("race-%s@test.local", suffix))

	// Two competing creates each want 6 of a stock of 10. The row locks
	// serialize them, so exactly one must win and one must get a conflict.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := models.CreateInvoice(ctx, db, models.NewInvoice{
				CustomerId:  customer.ID,
				InvoiceDate: utils.Today().Format(utils.DateLayout),
				Items:       []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 6}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err == nil {
			continue
		}
		if utils.KindOf(err) != utils.KindConflict {
			t.Fatalf("unexpected error kind %v: %v", utils.KindOf(err), err)
		}
		failures++
	}
	if failures != 1 {
		t.Fatalf("insufficient-stock failures = %d, want exactly 1", failures)
	}
	if got := stockOf(t, ctx, db, product.ID); got != 4 {
		t.Fatalf("stock = %d, want 4 (one successful decrement of 6)", got)
	}
}

func TestCustomerProvisioningCreatesLoginOnce(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	email := fmt.Sprintf("provision-%s@test.local", uniqueSuffix())
	_, provisioning, err := models.CreateCustomer(ctx, db, models.NewCustomer{
		Name:  "Provisioned",
		Email: email,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if !provisioning.LoginCreated {
		t.Fatal("expected login to be created for new email")
	}
	if len(provisioning.TempPassword) != 6 {
		t.Fatalf("temp password length = %d, want 6", len(provisioning.TempPassword))
	}

	// The temp password must authenticate.
	if _, err := models.AuthenticateUser(ctx, db, email, provisioning.TempPassword); err != nil {
		t.Fatalf("AuthenticateUser with temp password: %v", err)
	}

	// A second customer with the same email is a duplicate.
	if _, _, err := models.CreateCustomer(ctx, db, models.NewCustomer{Name: "Again", Email: email}); err == nil {
		t.Fatal("expected duplicate email conflict")
	}
}

func TestWebhookSettlesInvoice(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	product := seedProduct(t, ctx, db, "PAY-"+suffix, 10)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("pay-%s@test.local", suffix))

	invoice, err := models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Items:       []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	orderId := "order_test_" + suffix
	if _, err := models.CreatePaymentRecord(ctx, db, invoice.ID, orderId, invoice.TotalAmount, "INR", ""); err != nil {
		t.Fatalf("CreatePaymentRecord: %v", err)
	}

	err = models.ApplyPaymentWebhook(ctx, db, models.PaymentWebhookUpdate{
		OrderId:   orderId,
		PaymentId: "pay_test_" + suffix,
		Method:    "upi",
		Status:    models.PaymentStatusCaptured,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentWebhook: %v", err)
	}

	settled, err := models.GetInvoice(ctx, db, invoice.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if settled.Status != models.InvoiceStatusPaid {
		t.Fatalf("invoice status = %s, want paid", settled.Status)
	}

	payment, err := models.GetPaymentByOrderId(ctx, db, orderId)
	if err != nil {
		t.Fatalf("GetPaymentByOrderId: %v", err)
	}
	if payment.Status != models.PaymentStatusCaptured {
		t.Fatalf("payment status = %s, want captured", payment.Status)
	}
	if payment.Method != "upi" {
		t.Fatalf("payment method = %s, want upi", payment.Method)
	}

	// Unknown orders are swallowed, not errors.
	err = models.ApplyPaymentWebhook(ctx, db, models.PaymentWebhookUpdate{
		OrderId: "order_never_created",
		Status:  models.PaymentStatusCaptured,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentWebhook unknown order: %v", err)
	}
}

func TestWebhookOrderEventKeepsPaymentFields(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	product := seedProduct(t, ctx, db, "ORD-"+suffix, 10)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("ord-%s@test.local", suffix))

	invoice, err := models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Items:       []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	orderId := "order_paid_" + suffix
	if _, err := models.CreatePaymentRecord(ctx, db, invoice.ID, orderId, invoice.TotalAmount, "INR", ""); err != nil {
		t.Fatalf("CreatePaymentRecord: %v", err)
	}

	err = models.ApplyPaymentWebhook(ctx, db, models.PaymentWebhookUpdate{
		OrderId:   orderId,
		PaymentId: "pay_ord_" + suffix,
		Method:    "card",
		Status:    models.PaymentStatusCaptured,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentWebhook: %v", err)
	}

	// An order-level event like order.paid carries no payment entity, so the
	// update has only the order id and raw payload. It must not blank out the
	// status or other fields recorded by the earlier capture event.
	err = models.ApplyPaymentWebhook(ctx, db, models.PaymentWebhookUpdate{
		OrderId:    orderId,
		RawPayload: `{"event":"order.paid"}`,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentWebhook order event: %v", err)
	}

	payment, err := models.GetPaymentByOrderId(ctx, db, orderId)
	if err != nil {
		t.Fatalf("GetPaymentByOrderId: %v", err)
	}
	if payment.Status != models.PaymentStatusCaptured {
		t.Fatalf("payment status = %q, want captured", payment.Status)
	}
	if payment.RazorpayPaymentId != "pay_ord_"+suffix {
		t.Fatalf("payment id = %q, want pay_ord_%s", payment.RazorpayPaymentId, suffix)
	}
	if payment.Method != "card" {
		t.Fatalf("payment method = %q, want card", payment.Method)
	}
}

func TestProductDeleteGuard(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	product := seedProduct(t, ctx, db, "GUARD-"+suffix, 10)
	customer := seedCustomer(t, ctx, db, fmt.Sprintf("guard-%s@test.local", suffix))

	invoice, err := models.CreateInvoice(ctx, db, models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceDate: utils.Today().Format(utils.DateLayout),
		Items:       []models.NewInvoiceItem{{ProductId: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if err := models.DeleteProductById(ctx, db, product.ID); err == nil {
		t.Fatal("expected conflict deleting referenced product")
	}
	if err := models.DeleteCustomerById(ctx, db, customer.ID); err == nil {
		t.Fatal("expected conflict deleting customer with invoices")
	}

	if err := models.DeleteInvoiceById(ctx, db, invoice.ID); err != nil {
		t.Fatalf("DeleteInvoiceById: %v", err)
	}
	if err := models.DeleteProductById(ctx, db, product.ID); err != nil {
		t.Fatalf("DeleteProductById after invoice removal: %v", err)
	}
}
