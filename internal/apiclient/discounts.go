package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ticket-storefront/models"
)

const discountCodesPath = "/ticket/discount-codes/"

func (c *Client) ListDiscountCodes(ctx context.Context, params ListParams) ([]models.DiscountCode, error) {
	var items []models.DiscountCode
	err := c.list(ctx, "discount-codes", discountCodesPath, params.values(), func(raw json.RawMessage) (err error) {
		items, err = decodeList[models.DiscountCode](raw)
		return err
	})
	return items, err
}

func (c *Client) GetDiscountCode(ctx context.Context, id int64) (models.DiscountCode, error) {
	var code models.DiscountCode
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "discount-codes",
		path:     fmt.Sprintf("%s%d/", discountCodesPath, id),
	}, &code)
	return code, err
}

func (c *Client) CreateDiscountCode(ctx context.Context, in models.DiscountCode) (models.DiscountCode, error) {
	var code models.DiscountCode
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "discount-codes",
		path:     discountCodesPath,
		body:     in,
	}, &code)
	return code, err
}

// ValidateDiscountCode asks the API whether code applies to an order total.
// A rejected code may come back as 200 with valid=false or as a 4xx; both are
// reported as a DiscountValidation with Valid false.
func (c *Client) ValidateDiscountCode(ctx context.Context, req models.DiscountValidationRequest) (models.DiscountValidation, error) {
	var result models.DiscountValidation
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "discount-codes",
		path:     discountCodesPath + "validate_code/",
		body:     req,
	}, &result)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return models.DiscountValidation{Valid: false, Error: apiErr.Message}, nil
	}
	return result, err
}
