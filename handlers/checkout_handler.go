package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/status"
	"ticket-storefront/services"
)

type CheckoutHandler struct {
	checkout   *services.CheckoutService
	discounts  *services.DiscountService
	sessions   Sessions
	eventsPath string
	logger     *logrus.Logger
}

func NewCheckoutHandler(checkout *services.CheckoutService, discounts *services.DiscountService, sessions Sessions, eventsPath string, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:   checkout,
		discounts:  discounts,
		sessions:   sessions,
		eventsPath: eventsPath,
		logger:     logger,
	}
}

func (h *CheckoutHandler) noCart(c echo.Context) error {
	return c.JSON(http.StatusConflict, errorBody{
		Error:      "Your cart is empty.",
		RedirectTo: h.eventsPath,
	})
}

// GetCheckout - checkout summary; sends the shopper back to events without a cart
func (h *CheckoutHandler) GetCheckout(c echo.Context) error {
	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !sess.HasCart() {
		return h.noCart(c)
	}
	return c.JSON(http.StatusOK, services.Summarize(sess))
}

type discountRequest struct {
	Code string `json:"code"`
}

// ApplyDiscount - validate a discount code and attach it to the checkout
func (h *CheckoutHandler) ApplyDiscount(c echo.Context) error {
	var req discountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if _, err := h.discounts.Apply(c.Request().Context(), sess, req.Code); err != nil {
		if errors.Is(err, status.ErrEmptyCart) {
			return h.noCart(c)
		}
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, services.Summarize(sess))
}

// RemoveDiscount - drop the applied discount
func (h *CheckoutHandler) RemoveDiscount(c echo.Context) error {
	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if err := h.discounts.Remove(c.Request().Context(), sess); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, services.Summarize(sess))
}

// Submit - place the order and wait for the payment widget
func (h *CheckoutHandler) Submit(c echo.Context) error {
	var form services.CustomerForm
	if err := c.Bind(&form); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sess, err := h.sessions.load(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.checkout.Submit(c.Request().Context(), sess, form)
	if errors.Is(err, status.ErrEmptyCart) {
		return h.noCart(c)
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, result)
}
