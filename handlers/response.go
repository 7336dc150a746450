package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/internal/session"
	"ticket-storefront/internal/status"
	"ticket-storefront/services"
)

const SessionCookie = "checkout_session"

type errorBody struct {
	Error      string                    `json:"error"`
	Fields     services.ValidationErrors `json:"fields,omitempty"`
	RedirectTo string                    `json:"redirect_to,omitempty"`
	Retryable  bool                      `json:"retryable,omitempty"`
}

// respondError maps service and API errors onto one JSON notice.
func respondError(c echo.Context, logger *logrus.Logger, err error) error {
	var verrs services.ValidationErrors
	if errors.As(err, &verrs) {
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: services.UserMessage(err), Fields: verrs})
	}

	switch {
	case errors.Is(err, status.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, errorBody{Error: services.UserMessage(err)})
	case errors.Is(err, status.ErrInvalidDiscount),
		errors.Is(err, status.ErrUnknownTicketType),
		errors.Is(err, status.ErrTicketUnavailable),
		errors.Is(err, status.ErrBelowMinPurchase),
		errors.Is(err, status.ErrOverPurchaseLimit):
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: services.UserMessage(err)})
	case errors.Is(err, status.ErrPaymentInit):
		return c.JSON(http.StatusBadGateway, errorBody{Error: services.UserMessage(err)})
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		code := http.StatusBadGateway
		switch {
		case apiErr.StatusCode == http.StatusServiceUnavailable:
			code = http.StatusServiceUnavailable
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			code = apiErr.StatusCode
		case apiErr.StatusCode == 0:
			code = http.StatusGatewayTimeout
		}
		return c.JSON(code, errorBody{Error: services.UserMessage(err), Retryable: apiErr.Retryable})
	}

	var n *services.Notice
	if errors.As(err, &n) {
		return c.JSON(http.StatusBadGateway, errorBody{Error: n.Message})
	}

	logger.WithContext(c.Request().Context()).WithError(err).Error("unhandled error")
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "Something went wrong. Please try again."})
}

// Sessions reads and writes the checkout session cookie.
type Sessions struct {
	Store  session.Store
	TTL    time.Duration
	Secure bool
}

func (s Sessions) load(c echo.Context) (*session.Checkout, error) {
	id := ""
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}
	return session.LoadOrNew(c.Request().Context(), s.Store, id)
}

func (s Sessions) setCookie(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s Sessions) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.PathParam(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: message})
}

func queryInt(c echo.Context, name string) int64 {
	v, _ := strconv.ParseInt(c.QueryParam(name), 10, 64)
	return v
}
