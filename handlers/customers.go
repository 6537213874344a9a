package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/billsync/billsync_backend/models"
)

func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := models.GetCustomers(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "Customer", "ListCustomers", err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// CreateCustomer provisions a portal login alongside the customer and mails
// the temporary password after commit. The response reports whether a login
// was created and whether the welcome mail went out; neither flag affects
// the 201.
func (h *Handler) CreateCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	customer, provisioning, err := models.CreateCustomer(c.Request.Context(), h.DB, input)
	if err != nil {
		h.respondError(c, "Customer", "CreateCustomer", err)
		return
	}

	emailSent := false
	if provisioning.LoginCreated {
		if err := h.Mailer.SendWelcomeEmail(customer.Email, provisioning.TempPassword); err != nil {
			h.Logger.WithFields(logrus.Fields{
				"module":     "Customer",
				"funcName":   "CreateCustomer",
				"customerId": customer.ID,
			}).Warn("welcome email failed: " + err.Error())
		} else {
			emailSent = true
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer":      customer,
		"login_created": provisioning.LoginCreated,
		"email_sent":    emailSent,
	})
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Customer", "GetCustomer", err)
		return
	}

	customer, err := models.GetCustomer(c.Request.Context(), h.DB, id)
	if err != nil {
		h.respondError(c, "Customer", "GetCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Customer", "UpdateCustomer", err)
		return
	}

	var input models.UpdateCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondBindError(c, err)
		return
	}

	customer, err := models.UpdateCustomerById(c.Request.Context(), h.DB, id, input)
	if err != nil {
		h.respondError(c, "Customer", "UpdateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		h.respondError(c, "Customer", "DeleteCustomer", err)
		return
	}

	if err := models.DeleteCustomerById(c.Request.Context(), h.DB, id); err != nil {
		h.respondError(c, "Customer", "DeleteCustomer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
