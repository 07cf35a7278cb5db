package order

import (
	"context"
	"net/url"
	"strconv"

	"github.com/siteprobe/siteprobe-cli/internal/api"
	"github.com/siteprobe/siteprobe-cli/internal/logging"
)

const basePath = "/api/orders"

// Client wraps the order endpoints. No retry logic lives here beyond the
// shared layer's single 401 refresh-and-retry.
type Client struct {
	api *api.Client
	log logging.Logger
}

// NewClient creates an order client over an authenticated api.Client.
func NewClient(apiClient *api.Client, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop{}
	}
	return &Client{api: apiClient, log: log}
}

// Products lists the purchasable scan packages. Public endpoint.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.api.GetPublic(ctx, basePath+"/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

type createRequest struct {
	ProductType   string `json:"productType"`
	PaymentMethod Method `json:"paymentMethod"`
}

// Create places an order and returns it with the channel payment handles.
// A quota-gated product the user cannot buy surfaces as QuotaExceeded.
func (c *Client) Create(ctx context.Context, productType string, method Method) (*CreateResult, error) {
	var result CreateResult
	req := createRequest{ProductType: productType, PaymentMethod: method}
	if err := c.api.Post(ctx, basePath+"/create", req, &result); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "order created", "orderId", result.Order.OrderID, "method", method)
	return &result, nil
}

// Get fetches one order.
func (c *Client) Get(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	if err := c.api.Get(ctx, basePath+"/"+url.PathEscape(orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// List fetches one page of the user's orders.
func (c *Client) List(ctx context.Context, limit, offset int) (*ListPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page ListPage
	if err := c.api.Get(ctx, basePath+"/user/list", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Cancel cancels a pending order.
func (c *Client) Cancel(ctx context.Context, orderID string) error {
	return c.api.Post(ctx, basePath+"/"+url.PathEscape(orderID)+"/cancel", nil, nil)
}

// SimulatePay marks an order paid on development backends. Production
// backends reject it with 403.
func (c *Client) SimulatePay(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	if err := c.api.Post(ctx, basePath+"/"+url.PathEscape(orderID)+"/simulate-pay", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// StripeConfig fetches the public Stripe configuration. A failure degrades to
// an unconfigured result rather than an error, matching the web client: the
// purchase flow falls back to the other channels.
func (c *Client) StripeConfig(ctx context.Context) *StripeConfig {
	var cfg StripeConfig
	if err := c.api.GetPublic(ctx, basePath+"/stripe/config", nil, &cfg); err != nil {
		c.log.Warn(ctx, "failed to fetch stripe config", "error", err)
		return &StripeConfig{}
	}
	return &cfg
}

// CreateStripe places an order payable through Stripe.
func (c *Client) CreateStripe(ctx context.Context, productType string) (*StripeCreateResult, error) {
	var result StripeCreateResult
	req := createRequest{ProductType: productType, PaymentMethod: MethodStripe}
	if err := c.api.Post(ctx, basePath+"/create", req, &result); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "stripe order created", "orderId", result.Order.OrderID)
	return &result, nil
}

type confirmStripeRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// ConfirmStripe asks the backend to verify a PaymentIntent and settle the
// order. The resulting payment status is backend truth.
func (c *Client) ConfirmStripe(ctx context.Context, orderID, paymentIntentID string) (*ConfirmResult, error) {
	var result ConfirmResult
	req := confirmStripeRequest{PaymentIntentID: paymentIntentID}
	if err := c.api.Post(ctx, basePath+"/"+url.PathEscape(orderID)+"/confirm-stripe", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
