package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// SignatureHeader carries the gateway's HMAC over the raw request body.
const SignatureHeader = "X-Razorpay-Signature"

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 of the raw body
// against the header value in constant time. The body must be the exact
// bytes received, re-serialized JSON will not match.
func VerifyWebhookSignature(body []byte, signature string, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type PaymentEntity struct {
	Id      string `json:"id"`
	OrderId string `json:"order_id"`
	Amount  *int64 `json:"amount"`
	Status  string `json:"status"`
	Method  string `json:"method"`
}

type OrderEntity struct {
	Id string `json:"id"`
}

type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity *PaymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity *OrderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// OrderId prefers the payment entity's order reference and falls back to the
// order entity for order-level events.
func (p *WebhookPayload) OrderId() string {
	if p.Payload.Payment.Entity != nil && p.Payload.Payment.Entity.OrderId != "" {
		return p.Payload.Payment.Entity.OrderId
	}
	if p.Payload.Order.Entity != nil {
		return p.Payload.Order.Entity.Id
	}
	return ""
}
