package models

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type InvoiceStats struct {
	StatusCounts     map[string]int64 `json:"status_counts"`
	TotalRevenuePaid decimal.Decimal  `json:"total_revenue_paid"`
	PendingAmount    decimal.Decimal  `json:"pending_amount"`
	OverdueAmount    decimal.Decimal  `json:"overdue_amount"`
}

type statusCountRow struct {
	Status string
	Count  int64
}

type sumRow struct {
	Total decimal.Decimal
}

func sumTotalByStatus(ctx context.Context, db *gorm.DB, status InvoiceStatus) (decimal.Decimal, error) {
	var row sumRow
	err := db.WithContext(ctx).Model(&Invoice{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status = ?", status).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func GetInvoiceStats(ctx context.Context, db *gorm.DB) (*InvoiceStats, error) {
	var rows []statusCountRow
	err := db.WithContext(ctx).Model(&Invoice{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := InvoiceStats{StatusCounts: make(map[string]int64)}
	for _, row := range rows {
		stats.StatusCounts[row.Status] = row.Count
	}

	if stats.TotalRevenuePaid, err = sumTotalByStatus(ctx, db, InvoiceStatusPaid); err != nil {
		return nil, err
	}
	if stats.PendingAmount, err = sumTotalByStatus(ctx, db, InvoiceStatusPending); err != nil {
		return nil, err
	}
	if stats.OverdueAmount, err = sumTotalByStatus(ctx, db, InvoiceStatusOverdue); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClientProfit is one row of the per-customer profit breakdown. Profit is
// (sold unit price - catalog purchase price) summed over every invoice line.
type ClientProfit struct {
	CustomerId      int             `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	Profit          decimal.Decimal `json:"profit"`
	InvoiceCount    int64           `json:"invoice_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	ProfitMarginPct float64         `json:"profit_margin_pct"`
}

type ProfitSummary struct {
	OverallProfit decimal.Decimal `json:"overall_profit"`
	PerClient     []*ClientProfit `json:"per_client"`
}

func GetProfitSummary(ctx context.Context, db *gorm.DB) (*ProfitSummary, error) {
	var overall struct {
		Profit decimal.Decimal
	}
	overallSql := `
SELECT
    COALESCE(SUM((invoice_items.unit_price - COALESCE(products.purchase_price, 0)) * invoice_items.quantity), 0) AS profit
FROM
    invoice_items
    JOIN products ON products.id = invoice_items.product_id;
`
	if err := db.WithContext(ctx).Raw(overallSql).Scan(&overall).Error; err != nil {
		return nil, err
	}

	perClientSql := `
SELECT
    customers.id AS customer_id,
    customers.name AS customer_name,
    COALESCE(SUM((invoice_items.unit_price - COALESCE(products.purchase_price, 0)) * invoice_items.quantity), 0) AS profit,
    COUNT(DISTINCT invoices.id) AS invoice_count,
    COALESCE(SUM(invoices.total_amount), 0) AS revenue
FROM
    customers
    JOIN invoices ON invoices.customer_id = customers.id
    JOIN invoice_items ON invoice_items.invoice_id = invoices.id
    JOIN products ON products.id = invoice_items.product_id
GROUP BY
    customers.id, customers.name
ORDER BY
    profit DESC;
`
	var rows []*ClientProfit
	if err := db.WithContext(ctx).Raw(perClientSql).Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		if !row.Revenue.IsZero() {
			margin, _ := row.Profit.Div(row.Revenue).Mul(decimal.NewFromInt(100)).Float64()
			row.ProfitMarginPct = margin
		}
	}

	summary := ProfitSummary{
		OverallProfit: overall.Profit,
		PerClient:     rows,
	}
	if summary.PerClient == nil {
		summary.PerClient = []*ClientProfit{}
	}
	return &summary, nil
}

// WriteProfitSummaryExcel renders the profit summary as an xlsx workbook.
func WriteProfitSummaryExcel(w io.Writer, summary *ProfitSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "CustomerName")
	f.SetCellValue(sheet, "B1", "InvoiceCount")
	f.SetCellValue(sheet, "C1", "Revenue")
	f.SetCellValue(sheet, "D1", "Profit")
	f.SetCellValue(sheet, "E1", "ProfitMarginPct")

	for i, row := range summary.PerClient {
		r := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+r, row.CustomerName)
		f.SetCellValue(sheet, "B"+r, row.InvoiceCount)
		f.SetCellValue(sheet, "C"+r, row.Revenue.InexactFloat64())
		f.SetCellValue(sheet, "D"+r, row.Profit.InexactFloat64())
		f.SetCellValue(sheet, "E"+r, row.ProfitMarginPct)
	}

	totalRow := fmt.Sprint(len(summary.PerClient) + 3)
	f.SetCellValue(sheet, "A"+totalRow, "Overall")
	f.SetCellValue(sheet, "D"+totalRow, summary.OverallProfit.InexactFloat64())

	return f.Write(w)
}
