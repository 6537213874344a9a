package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/billsync/billsync_backend/models"
	"github.com/billsync/billsync_backend/razorpay"
	"github.com/billsync/billsync_backend/utils"
)

type createPaymentRequest struct {
	InvoiceId int `json:"invoice_id" binding:"required"`
}

// CreatePaymentOrder raises a gateway order for an invoice's total and
// records it so the webhook can settle the invoice later.
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	invoice, err := models.GetInvoice(ctx, h.DB, req.InvoiceId)
	if err != nil {
		h.respondError(c, "Payment", "CreatePaymentOrder", err)
		return
	}

	receipt := fmt.Sprintf("invoice-%d-%s", invoice.ID, time.Now().Format("20060102150405"))
	order, err := h.Payments.CreateOrder(ctx, razorpay.MinorUnits(invoice.TotalAmount), receipt)
	if err != nil {
		h.respondError(c, "Payment", "CreatePaymentOrder", err)
		return
	}

	orderId, _ := order["id"].(string)
	if orderId == "" {
		h.respondError(c, "Payment", "CreatePaymentOrder",
			utils.Upstream("payment gateway returned no order id", nil))
		return
	}

	_, err = models.CreatePaymentRecord(ctx, h.DB, invoice.ID, orderId, invoice.TotalAmount, "INR", "")
	if err != nil {
		h.respondError(c, "Payment", "CreatePaymentOrder", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":  order,
		"key_id": h.Payments.KeyID(),
	})
}

// CreatePaymentLink raises a hosted payment link for an invoice.
func (h *Handler) CreatePaymentLink(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	invoice, err := models.GetInvoice(ctx, h.DB, req.InvoiceId)
	if err != nil {
		h.respondError(c, "Payment", "CreatePaymentLink", err)
		return
	}

	customer := razorpay.PaymentLinkCustomer{Name: "Customer"}
	if invoice.Customer != nil {
		customer.Name = invoice.Customer.Name
		customer.Email = invoice.Customer.Email
	}

	link, err := h.Payments.CreatePaymentLink(ctx, razorpay.PaymentLinkRequest{
		Amount:         razorpay.MinorUnits(invoice.TotalAmount),
		ReferenceId:    fmt.Sprintf("invoice-%d", invoice.ID),
		Description:    fmt.Sprintf("Payment for Invoice %s", invoice.InvoiceNumber),
		Customer:       customer,
		Notify:         razorpay.PaymentLinkNotify{Email: true},
		ReminderEnable: true,
	})
	if err != nil {
		h.respondError(c, "Payment", "CreatePaymentLink", err)
		return
	}

	linkId, _ := link["id"].(string)
	if linkId == "" {
		h.respondError(c, "Payment", "CreatePaymentLink",
			utils.Upstream("payment gateway returned no link id", nil))
		return
	}

	rawLink, _ := json.Marshal(link)
	_, err = models.CreatePaymentRecord(ctx, h.DB, invoice.ID, linkId, invoice.TotalAmount, "INR", string(rawLink))
	if err != nil {
		h.respondError(c, "Payment", "CreatePaymentLink", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_link": link})
}

// PaymentWebhook verifies the gateway signature over the raw body, then
// applies the event. Unknown orders are acknowledged so the gateway stops
// retrying; bad signatures are rejected before any parsing.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	if !h.Payments.WebhookConfigured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret not configured"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		h.respondBindError(c, err)
		return
	}

	signature := c.GetHeader(razorpay.SignatureHeader)
	if !razorpay.VerifyWebhookSignature(body, signature, h.Payments.WebhookSecret()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	payload, err := razorpay.ParseWebhookPayload(body)
	if err != nil {
		h.respondBindError(c, err)
		return
	}

	update := models.PaymentWebhookUpdate{
		OrderId:    payload.OrderId(),
		RawPayload: string(body),
	}
	if entity := payload.Payload.Payment.Entity; entity != nil {
		update.PaymentId = entity.Id
		update.Method = entity.Method
		update.Status = models.PaymentStatus(entity.Status)
		if entity.Amount != nil {
			amount := decimal.NewFromInt(*entity.Amount).Div(decimal.NewFromInt(100))
			update.Amount = &amount
		}
	}
	if update.OrderId == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := models.ApplyPaymentWebhook(c.Request.Context(), h.DB, update); err != nil {
		h.respondError(c, "Payment", "PaymentWebhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
