package models

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestResolveInvoiceDatesDefaultsDueDate(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	invDate, dueDate, err := resolveInvoiceDates("2026-08-30", "", today)
	if err != nil {
		t.Fatalf("resolveInvoiceDates: %v", err)
	}
	if !invDate.Equal(today) {
		t.Fatalf("invoice date = %v, want %v", invDate, today)
	}
	want := today.AddDate(0, 0, 30)
	if !dueDate.Equal(want) {
		t.Fatalf("due date = %v, want %v", dueDate, want)
	}
}

func TestResolveInvoiceDatesRejectsNonToday(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	if _, _, err := resolveInvoiceDates("2026-08-29", "", today); err == nil {
		t.Fatal("expected error for backdated invoice")
	}
	if _, _, err := resolveInvoiceDates("2026-08-31", "", today); err == nil {
		t.Fatal("expected error for future-dated invoice")
	}
}

func TestResolveInvoiceDatesRejectsDueBeforeInvoice(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	if _, _, err := resolveInvoiceDates("2026-08-30", "2026-08-30", today); err == nil {
		t.Fatal("expected error for due date equal to invoice date")
	}
	if _, _, err := resolveInvoiceDates("2026-08-30", "2026-08-29", today); err == nil {
		t.Fatal("expected error for due date before invoice date")
	}

	_, dueDate, err := resolveInvoiceDates("2026-08-30", "2026-09-15", today)
	if err != nil {
		t.Fatalf("resolveInvoiceDates: %v", err)
	}
	if dueDate.Format("2006-01-02") != "2026-09-15" {
		t.Fatalf("due date = %v, want 2026-09-15", dueDate)
	}
}

func TestResolveInvoiceDatesRejectsBadFormat(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	if _, _, err := resolveInvoiceDates("30-08-2026", "", today); err == nil {
		t.Fatal("expected error for bad invoice date format")
	}
	if _, _, err := resolveInvoiceDates("2026-08-30", "next month", today); err == nil {
		t.Fatal("expected error for bad due date format")
	}
}

func TestComputeInvoiceTotalsAppliesTax(t *testing.T) {
	items := []InvoiceItem{
		{TotalPrice: decimal.RequireFromString("100.00")},
		{TotalPrice: decimal.RequireFromString("50.00")},
	}

	subtotal, tax, total := computeInvoiceTotals(items)
	if subtotal.String() != "150" {
		t.Fatalf("subtotal = %s, want 150", subtotal)
	}
	if tax.String() != "27" {
		t.Fatalf("tax = %s, want 27", tax)
	}
	if total.String() != "177" {
		t.Fatalf("total = %s, want 177", total)
	}
}

func TestComputeInvoiceTotalsRoundsToPaise(t *testing.T) {
	// 33.33 * 0.18 = 5.9994, must round to 6.00 not truncate.
	items := []InvoiceItem{
		{TotalPrice: decimal.RequireFromString("33.33")},
	}

	subtotal, tax, total := computeInvoiceTotals(items)
	if subtotal.String() != "33.33" {
		t.Fatalf("subtotal = %s, want 33.33", subtotal)
	}
	if tax.String() != "6" {
		t.Fatalf("tax = %s, want 6", tax)
	}
	if total.String() != "39.33" {
		t.Fatalf("total = %s, want 39.33", total)
	}
}

func TestComputeInvoiceTotalsEmpty(t *testing.T) {
	subtotal, tax, total := computeInvoiceTotals(nil)
	if !subtotal.IsZero() || !tax.IsZero() || !total.IsZero() {
		t.Fatalf("expected all zero, got %s %s %s", subtotal, tax, total)
	}
}

func TestNewInvoiceRejectsUnknownStatus(t *testing.T) {
	// Status is checked before any lookups, so no database is needed here.
	input := NewInvoice{CustomerId: 1, Status: "settled"}
	if err := input.validate(context.Background(), nil); err == nil {
		t.Fatal("expected error for unknown invoice status")
	}
}

func TestGenerateInvoiceNumberFormat(t *testing.T) {
	number := GenerateInvoiceNumber()
	if !strings.HasPrefix(number, "INV-") {
		t.Fatalf("invoice number %q missing INV- prefix", number)
	}
	parts := strings.Split(number, "-")
	if len(parts) != 4 {
		t.Fatalf("invoice number %q should have 4 segments", number)
	}
	if len(parts[3]) != 4 {
		t.Fatalf("invoice number %q suffix should be 4 digits", number)
	}
}
