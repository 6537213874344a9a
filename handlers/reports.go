package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billsync/billsync_backend/models"
)

func (h *Handler) InvoiceStats(c *gin.Context) {
	stats, err := models.GetInvoiceStats(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "Report", "InvoiceStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ProfitSummary(c *gin.Context) {
	summary, err := models.GetProfitSummary(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "Report", "ProfitSummary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportProfitSummary streams the profit summary as an xlsx download.
func (h *Handler) ExportProfitSummary(c *gin.Context) {
	summary, err := models.GetProfitSummary(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "Report", "ExportProfitSummary", err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=profit-summary.xlsx")
	if err := models.WriteProfitSummaryExcel(c.Writer, summary); err != nil {
		h.respondError(c, "Report", "ExportProfitSummary", err)
		return
	}
}
