package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/billsync/billsync_backend/models"
	"github.com/billsync/billsync_backend/utils"
)

type emailInvoiceRequest struct {
	ToEmail string `json:"toEmail"`
}

func (h *Handler) ListInvoices(c *gin.Context) {
	status := models.InvoiceStatus(c.Query("status"))
	invoices, err := models.GetInvoices(c.Request.Context(), h.DB, status)
	if err != nil {
		h.respondError(c, "Invoice", "ListInvoices", err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// CreateInvoice writes the invoice atomically, then mails the customer
// best-effort. A mail failure is reported via email_sent but never undoes
// the committed invoice.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	invoice, err := models.CreateInvoice(c.Request.Context(), h.DB, input)
	if err != nil {
		h.respondError(c, "Invoice", "CreateInvoice", err)
		return
	}

	emailSent := h.emailInvoice(invoice, "")

	message := "Invoice created successfully (email not sent)"
	if emailSent {
		message = "Invoice created and email sent successfully"
	}
	c.JSON(http.StatusCreated, gin.H{
		"invoice":    invoice,
		"email_sent": emailSent,
		"message":    message,
	})
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Invoice", "GetInvoice", err)
		return
	}

	invoice, err := models.GetInvoice(c.Request.Context(), h.DB, id)
	if err != nil {
		h.respondError(c, "Invoice", "GetInvoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) UpdateInvoice(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Invoice", "UpdateInvoice", err)
		return
	}

	var input models.UpdateInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	invoice, err := models.UpdateInvoiceById(c.Request.Context(), h.DB, id, input)
	if err != nil {
		h.respondError(c, "Invoice", "UpdateInvoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) DeleteInvoice(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Invoice", "DeleteInvoice", err)
		return
	}

	if err := models.DeleteInvoiceById(c.Request.Context(), h.DB, id); err != nil {
		h.respondError(c, "Invoice", "DeleteInvoice", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

func (h *Handler) MarkInvoicePaid(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Invoice", "MarkInvoicePaid", err)
		return
	}

	invoice, err := models.MarkInvoicePaid(c.Request.Context(), h.DB, id)
	if err != nil {
		h.respondError(c, "Invoice", "MarkInvoicePaid", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"status":         invoice.Status,
		"updated_at":     invoice.UpdatedAt,
	})
}

// EmailInvoice re-sends the invoice mail, optionally to an override address.
func (h *Handler) EmailInvoice(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Invoice", "EmailInvoice", err)
		return
	}

	var req emailInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondBindError(c, err)
			return
		}
	}

	invoice, err := models.GetInvoice(c.Request.Context(), h.DB, id)
	if err != nil {
		h.respondError(c, "Invoice", "EmailInvoice", err)
		return
	}

	to := req.ToEmail
	if to == "" && invoice.Customer != nil {
		to = invoice.Customer.Email
	}
	if to == "" {
		h.respondError(c, "Invoice", "EmailInvoice", utils.Invalid("recipient email not available"))
		return
	}

	if err := h.Mailer.SendInvoiceEmail(invoice, to); err != nil {
		h.respondError(c, "Invoice", "EmailInvoice", utils.Upstream("failed to send email", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "message": "Email sent successfully"})
}

// emailInvoice sends to the customer (or override) and only logs failures.
func (h *Handler) emailInvoice(invoice *models.Invoice, override string) bool {
	to := override
	if to == "" && invoice.Customer != nil {
		to = invoice.Customer.Email
	}
	if to == "" {
		return false
	}

	if err := h.Mailer.SendInvoiceEmail(invoice, to); err != nil {
		h.Logger.WithFields(logrus.Fields{
			"module":    "Invoice",
			"funcName":  "emailInvoice",
			"invoiceId": invoice.ID,
		}).Warn("invoice email failed: " + err.Error())
		return false
	}
	return true
}
