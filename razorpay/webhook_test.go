package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"

	assert.True(t, VerifyWebhookSignature(body, sign(body, secret), secret))
	assert.False(t, VerifyWebhookSignature(body, sign(body, "other_secret"), secret))
	assert.False(t, VerifyWebhookSignature([]byte(`{"event":"tampered"}`), sign(body, secret), secret))
	assert.False(t, VerifyWebhookSignature(body, "", secret))
	assert.False(t, VerifyWebhookSignature(body, sign(body, secret), ""))
}

func TestParseWebhookPayloadPaymentEntity(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_456",
					"amount": 17700,
					"status": "captured",
					"method": "upi"
				}
			}
		}
	}`)

	payload, err := ParseWebhookPayload(body)
	require.NoError(t, err)
	assert.Equal(t, "payment.captured", payload.Event)
	assert.Equal(t, "order_456", payload.OrderId())

	entity := payload.Payload.Payment.Entity
	require.NotNil(t, entity)
	assert.Equal(t, "pay_123", entity.Id)
	assert.Equal(t, "captured", entity.Status)
	assert.Equal(t, "upi", entity.Method)
	require.NotNil(t, entity.Amount)
	assert.Equal(t, int64(17700), *entity.Amount)
}

func TestParseWebhookPayloadOrderFallback(t *testing.T) {
	body := []byte(`{
		"event": "order.paid",
		"payload": {
			"order": {
				"entity": {"id": "order_789"}
			}
		}
	}`)

	payload, err := ParseWebhookPayload(body)
	require.NoError(t, err)
	assert.Equal(t, "order_789", payload.OrderId())
}

func TestParseWebhookPayloadInvalidJSON(t *testing.T) {
	_, err := ParseWebhookPayload([]byte("not json"))
	require.Error(t, err)
}

func TestMinorUnitsTruncates(t *testing.T) {
	assert.Equal(t, int64(17700), MinorUnits(decimal.RequireFromString("177.00")))
	assert.Equal(t, int64(17700), MinorUnits(decimal.RequireFromString("177.009")))
	assert.Equal(t, int64(99), MinorUnits(decimal.RequireFromString("0.999")))
	assert.Equal(t, int64(0), MinorUnits(decimal.Zero))
}
