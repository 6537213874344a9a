package razorpay

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/billsync/billsync_backend/utils"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Client is a thin wrapper over the Razorpay REST API. A nil-configured
// client is legal: Configured() gates every gateway endpoint so the rest of
// the app keeps working without payment keys.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	http          *resty.Client
}

func NewClientFromEnv() *Client {
	baseURL := os.Getenv("RZP_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		keyID:         os.Getenv("RZP_KEY_ID"),
		keySecret:     os.Getenv("RZP_KEY_SECRET"),
		webhookSecret: os.Getenv("RZP_WEBHOOK_SECRET"),
	}
	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20 * time.Second).
		SetBasicAuth(c.keyID, c.keySecret)
	return c
}

func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

func (c *Client) WebhookConfigured() bool {
	return c.webhookSecret != ""
}

func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) WebhookSecret() string {
	return c.webhookSecret
}

// MinorUnits converts a rupee amount to integer paise, truncating any
// sub-paisa remainder the same way the gateway expects.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

type OrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type PaymentLinkCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type PaymentLinkNotify struct {
	Email bool `json:"email"`
}

type PaymentLinkRequest struct {
	Amount         int64               `json:"amount"`
	Currency       string              `json:"currency"`
	AcceptPartial  bool                `json:"accept_partial"`
	ReferenceId    string              `json:"reference_id"`
	Description    string              `json:"description"`
	Customer       PaymentLinkCustomer `json:"customer"`
	Notify         PaymentLinkNotify   `json:"notify"`
	ReminderEnable bool                `json:"reminder_enable"`
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	if !c.Configured() {
		return nil, utils.Upstream("payment gateway is not configured", nil)
	}

	var result map[string]interface{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(path)
	if err != nil {
		return nil, utils.Upstream("payment gateway request failed", err)
	}
	if resp.IsError() {
		return nil, utils.Upstream(
			fmt.Sprintf("payment gateway error %d: %s", resp.StatusCode(), resp.String()), nil)
	}
	return result, nil
}

// CreateOrder raises a gateway order for the given paise amount.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (map[string]interface{}, error) {
	return c.post(ctx, "/orders", OrderRequest{
		Amount:         amountPaise,
		Currency:       "INR",
		Receipt:        receipt,
		PaymentCapture: 1,
	})
}

// CreatePaymentLink raises a hosted payment link the customer pays through.
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (map[string]interface{}, error) {
	if req.Currency == "" {
		req.Currency = "INR"
	}
	return c.post(ctx, "/payment_links", req)
}
