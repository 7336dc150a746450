package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"ticket-storefront/models"
)

// VerifyPayment asks the API to confirm a provider transaction reference.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (models.PaymentVerification, error) {
	var v models.PaymentVerification
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "verify-payment",
		path:     "/ticket/verify-payment/",
		query:    url.Values{"reference": {reference}},
	}, &v)
	return v, err
}
