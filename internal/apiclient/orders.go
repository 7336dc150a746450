package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ticket-storefront/models"
)

const ordersPath = "/ticket/orders/"

// ListOrders also serves payment listings through ListParams.PaymentStatus.
func (c *Client) ListOrders(ctx context.Context, params ListParams) ([]models.Order, error) {
	var items []models.Order
	err := c.list(ctx, "orders", ordersPath, params.values(), func(raw json.RawMessage) (err error) {
		items, err = decodeList[models.Order](raw)
		return err
	})
	return items, err
}

// maxOrderPages bounds ListAllOrders against a server that never stops
// linking a next page.
const maxOrderPages = 50

// ListAllOrders walks the paginated listing page by page while the server
// reports a next page.
func (c *Client) ListAllOrders(ctx context.Context, params ListParams) ([]models.Order, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	all := []models.Order{}
	for i := 0; i < maxOrderPages; i++ {
		var (
			items []models.Order
			more  bool
		)
		err := c.list(ctx, "orders", ordersPath, params.values(), func(raw json.RawMessage) (err error) {
			items, more, err = decodePage[models.Order](raw)
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if !more || len(items) == 0 {
			return all, nil
		}
		params.Page++
	}

	c.logger.WithContext(ctx).WithField("pages", maxOrderPages).Warn("order listing truncated")
	return all, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "orders",
		path:     fmt.Sprintf("%s%d/", ordersPath, id),
	}, &order)
	return order, err
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "orders",
		path:     ordersPath,
		body:     req,
	}, &order)
	return order, err
}

func (c *Client) ConfirmPayment(ctx context.Context, id int64, req models.ConfirmPaymentRequest) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "orders",
		path:     fmt.Sprintf("%s%d/confirm_payment/", ordersPath, id),
		body:     req,
	}, &order)
	return order, err
}

func (c *Client) CancelOrder(ctx context.Context, id int64) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "orders",
		path:     fmt.Sprintf("%s%d/cancel/", ordersPath, id),
	}, &order)
	return order, err
}

// InitializePayment opens a payment session with the provider for an order.
func (c *Client) InitializePayment(ctx context.Context, orderID int64) (models.PaymentInit, error) {
	var init models.PaymentInit
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "orders",
		path:     fmt.Sprintf("%s%d/initialize_payment/", ordersPath, orderID),
	}, &init)
	return init, err
}
