package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/billsync/billsync_backend/config"
	"github.com/billsync/billsync_backend/razorpay"
)

func webhookRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("RZP_WEBHOOK_SECRET", secret)

	h := New(nil, nil, razorpay.NewClientFromEnv(), config.GetLogger())
	r := gin.New()
	r.POST("/api/payments/webhook", h.PaymentWebhook)
	return r
}

func TestPaymentWebhookRejectsWhenUnconfigured(t *testing.T) {
	r := webhookRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString("{}"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Webhook secret not configured")
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	r := webhookRouter(t, "whsec_test")

	body := []byte(`{"event":"payment.captured"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBuffer(body))
	req.Header.Set(razorpay.SignatureHeader, "deadbeef")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid signature")

	// Missing header entirely is rejected the same way.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBuffer(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
