package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"ticket-storefront/services"
)

type PaymentHandler struct {
	callback *services.PaymentCallbackService
	sessions Sessions
}

func NewPaymentHandler(callback *services.PaymentCallbackService, sessions Sessions) *PaymentHandler {
	return &PaymentHandler{callback: callback, sessions: sessions}
}

// Callback - verify the provider reference the shopper returned with
func (h *PaymentHandler) Callback(c echo.Context) error {
	sessionID := ""
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		sessionID = cookie.Value
	}

	result := h.callback.Handle(c.Request().Context(), sessionID, c.Request().URL.Query())
	if result.State == services.CallbackSuccess {
		h.sessions.clearCookie(c)
	}
	return c.JSON(http.StatusOK, result)
}
