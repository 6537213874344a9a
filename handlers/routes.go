package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/billsync/billsync_backend/middlewares"
)

// RegisterRoutes wires the full /api surface. Login, register and the
// gateway webhook are the only open endpoints; everything else requires a
// bearer token.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/payments/webhook", h.PaymentWebhook)

	authed := api.Group("")
	authed.Use(middlewares.AuthMiddleware())

	authed.GET("/auth/me", h.Me)
	authed.POST("/auth/change-password", h.ChangePassword)

	authed.GET("/customers", h.ListCustomers)
	authed.POST("/customers", h.CreateCustomer)
	authed.GET("/customers/:id", h.GetCustomer)
	authed.PUT("/customers/:id", h.UpdateCustomer)
	authed.DELETE("/customers/:id", h.DeleteCustomer)

	authed.GET("/products", h.ListProducts)
	authed.POST("/products", h.CreateProduct)
	authed.PUT("/products/:id", h.UpdateProduct)
	authed.DELETE("/products/:id", h.DeleteProduct)

	authed.GET("/invoices", h.ListInvoices)
	authed.POST("/invoices", h.CreateInvoice)
	authed.GET("/invoices/stats", h.InvoiceStats)
	authed.GET("/invoices/:id", h.GetInvoice)
	authed.PUT("/invoices/:id", h.UpdateInvoice)
	authed.DELETE("/invoices/:id", h.DeleteInvoice)
	authed.PATCH("/invoices/:id/paid", h.MarkInvoicePaid)
	authed.POST("/invoices/:id/email", h.EmailInvoice)

	authed.POST("/payments/create-order", h.CreatePaymentOrder)
	authed.POST("/payments/create-link", h.CreatePaymentLink)

	authed.GET("/profits/summary", h.ProfitSummary)
	authed.GET("/profits/summary/export", h.ExportProfitSummary)
}
