package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ticket-storefront/models"
)

const ticketsPath = "/ticket/tickets/"

func (c *Client) ListTickets(ctx context.Context, params ListParams) ([]models.Ticket, error) {
	var items []models.Ticket
	err := c.list(ctx, "tickets", ticketsPath, params.values(), func(raw json.RawMessage) (err error) {
		items, err = decodeList[models.Ticket](raw)
		return err
	})
	return items, err
}

func (c *Client) GetTicket(ctx context.Context, id int64) (models.Ticket, error) {
	var ticket models.Ticket
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "tickets",
		path:     fmt.Sprintf("%s%d/", ticketsPath, id),
	}, &ticket)
	return ticket, err
}

func (c *Client) CheckInTicket(ctx context.Context, id int64) (models.Ticket, error) {
	var ticket models.Ticket
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "tickets",
		path:     fmt.Sprintf("%s%d/check_in/", ticketsPath, id),
	}, &ticket)
	return ticket, err
}
