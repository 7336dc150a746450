package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/services"
)

type StorefrontHandler struct {
	storefront *services.StorefrontService
	sessions   Sessions
	logger     *logrus.Logger
}

func NewStorefrontHandler(storefront *services.StorefrontService, sessions Sessions, logger *logrus.Logger) *StorefrontHandler {
	return &StorefrontHandler{storefront: storefront, sessions: sessions, logger: logger}
}

// GetEvent - event details with the ticket types on sale
func (h *StorefrontHandler) GetEvent(c echo.Context) error {
	page, err := h.storefront.EventPage(c.Request().Context(), c.PathParam("slug"))
	if apiclient.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "Event not found"})
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetCart - current cart summary
func (h *StorefrontHandler) GetCart(c echo.Context) error {
	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, services.Summarize(sess))
}

type changeItemRequest struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Change       int   `json:"change"`
}

// ChangeCartItem - add or remove tickets of one type
func (h *StorefrontHandler) ChangeCartItem(c echo.Context) error {
	var req changeItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TicketTypeID <= 0 || req.Change == 0 {
		return badRequest(c, "ticket_type_id and a non-zero change are required")
	}

	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	summary, err := h.storefront.ChangeQuantity(c.Request().Context(), sess, req.TicketTypeID, req.Change)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.sessions.setCookie(c, sess.ID)
	return c.JSON(http.StatusOK, summary)
}

// ClearCart - abandon the checkout session
func (h *StorefrontHandler) ClearCart(c echo.Context) error {
	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if err := h.storefront.Abandon(c.Request().Context(), sess); err != nil {
		return respondError(c, h.logger, err)
	}

	h.sessions.clearCookie(c)
	return c.NoContent(http.StatusNoContent)
}
