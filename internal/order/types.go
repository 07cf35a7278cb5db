// Package order wraps the order and payment endpoints. These are thin
// request/response clients: payment status transitions are driven entirely by
// backend confirmations and are never inferred client-side.
package order

import "github.com/siteprobe/siteprobe-cli/internal/scan"

// PaymentStatus is the backend-owned order payment state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Method selects the payment channel.
type Method string

const (
	MethodWeChat Method = "wechat"
	MethodAlipay Method = "alipay"
	MethodStripe Method = "stripe"
)

// Product is a purchasable scan package.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ScanCount   int     `json:"scanCount"`
	ScanType    string  `json:"scanType"`
}

// Order is one purchase of scan quota.
type Order struct {
	OrderID       string        `json:"orderId"`
	OrderNo       string        `json:"orderNo"`
	UserID        string        `json:"userId"`
	ProductType   string        `json:"productType"`
	ProductName   string        `json:"productName"`
	Amount        float64       `json:"amount"`
	ScanCount     int           `json:"scanCount"`
	PaymentMethod Method        `json:"paymentMethod,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAt        string        `json:"paidAt,omitempty"`
	ExpiredAt     string        `json:"expiredAt,omitempty"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

// PaymentParams carries the channel-specific handles needed to complete a
// WeChat or Alipay payment.
type PaymentParams struct {
	CodeURL  string `json:"codeUrl,omitempty"`
	PrepayID string `json:"prepayId,omitempty"`
	PayURL   string `json:"payUrl,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CreateResult is the payload of order creation.
type CreateResult struct {
	Order   Order         `json:"order"`
	Payment PaymentParams `json:"payment"`
}

// ListPage is one page of the user's orders.
type ListPage struct {
	Orders     []Order         `json:"orders"`
	Pagination scan.Pagination `json:"pagination"`
}

// StripeConfig is the public Stripe configuration.
type StripeConfig struct {
	PublishableKey   string   `json:"publishableKey,omitempty"`
	IsConfigured     bool     `json:"isConfigured"`
	SupportedMethods []string `json:"supportedMethods,omitempty"`
}

// StripePaymentParams carries the PaymentIntent handles for a Stripe order.
type StripePaymentParams struct {
	Type            string  `json:"type"`
	ClientSecret    string  `json:"clientSecret"`
	PaymentIntentID string  `json:"paymentIntentId"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	PublishableKey  string  `json:"publishableKey"`
	Message         string  `json:"message,omitempty"`
}

// StripeCreateResult is the payload of a Stripe order creation.
type StripeCreateResult struct {
	Order   Order               `json:"order"`
	Payment StripePaymentParams `json:"payment"`
}

// ConfirmResult is the payload of a Stripe payment confirmation.
type ConfirmResult struct {
	Order         Order  `json:"order"`
	PaymentStatus string `json:"paymentStatus"`
}
