package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"ticket-storefront/models"
)

func (c *Client) GetEventBySlug(ctx context.Context, slug string) (models.Event, error) {
	var event models.Event
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "events",
		path:     fmt.Sprintf("/events/by-slug/%s/", url.PathEscape(slug)),
	}, &event)
	return event, err
}

func (c *Client) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	var event models.Event
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "events",
		path:     fmt.Sprintf("/events/%d/", id),
	}, &event)
	return event, err
}
