package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ticket-storefront/models"
)

const ticketTypesPath = "/ticket/ticket-types/"

func (c *Client) ListTicketTypes(ctx context.Context, params ListParams) ([]models.TicketType, error) {
	var items []models.TicketType
	err := c.list(ctx, "ticket-types", ticketTypesPath, params.values(), func(raw json.RawMessage) (err error) {
		items, err = decodeList[models.TicketType](raw)
		return err
	})
	return items, err
}

// ListPublicTicketTypes returns the ticket types currently on sale for an event.
func (c *Client) ListPublicTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	available := true
	return c.ListTicketTypes(ctx, ListParams{Event: eventID, Available: &available})
}

func (c *Client) GetTicketType(ctx context.Context, id int64) (models.TicketType, error) {
	var tt models.TicketType
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "ticket-types",
		path:     fmt.Sprintf("%s%d/", ticketTypesPath, id),
	}, &tt)
	return tt, err
}

func (c *Client) CreateTicketType(ctx context.Context, in models.TicketTypeInput) (models.TicketType, error) {
	var tt models.TicketType
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "ticket-types",
		path:     ticketTypesPath,
		body:     in,
	}, &tt)
	return tt, err
}

func (c *Client) UpdateTicketType(ctx context.Context, id int64, in models.TicketTypeInput) (models.TicketType, error) {
	var tt models.TicketType
	err := c.do(ctx, request{
		method:   http.MethodPut,
		endpoint: "ticket-types",
		path:     fmt.Sprintf("%s%d/", ticketTypesPath, id),
		body:     in,
	}, &tt)
	return tt, err
}

func (c *Client) PatchTicketType(ctx context.Context, id int64, patch models.TicketTypePatch) (models.TicketType, error) {
	var tt models.TicketType
	err := c.do(ctx, request{
		method:   http.MethodPatch,
		endpoint: "ticket-types",
		path:     fmt.Sprintf("%s%d/", ticketTypesPath, id),
		body:     patch,
	}, &tt)
	return tt, err
}

func (c *Client) DeleteTicketType(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "ticket-types",
		path:     fmt.Sprintf("%s%d/", ticketTypesPath, id),
	}, nil)
}

func (c *Client) AddBenefit(ctx context.Context, ticketTypeID int64, benefit models.TicketBenefit) (models.TicketBenefit, error) {
	var out models.TicketBenefit
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "ticket-types",
		path:     fmt.Sprintf("%s%d/add_benefit/", ticketTypesPath, ticketTypeID),
		body:     benefit,
	}, &out)
	return out, err
}
