package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"

	"ticket-storefront/utils"
)

// Router holds every handler mounted under /api/v1.
type Router struct {
	Storefront *StorefrontHandler
	Checkout   *CheckoutHandler
	Payment    *PaymentHandler
	Tickets    *TicketHandler
	Admin      *AdminHandler
	Health     *HealthHandler
}

func (r Router) Register(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	api := e.Group("/api/v1", mw...)

	// Storefront endpoints
	api.GET("/events/:slug", r.Storefront.GetEvent)
	api.GET("/cart", r.Storefront.GetCart)
	api.POST("/cart/items", r.Storefront.ChangeCartItem)
	api.DELETE("/cart", r.Storefront.ClearCart)

	// Checkout endpoints
	api.GET("/checkout", r.Checkout.GetCheckout)
	api.POST("/checkout", r.Checkout.Submit)
	api.POST("/checkout/discount", r.Checkout.ApplyDiscount)
	api.DELETE("/checkout/discount", r.Checkout.RemoveDiscount)

	// Payment endpoints
	api.GET("/payment/callback", r.Payment.Callback)

	// Ticket endpoints
	api.GET("/tickets", r.Tickets.MyTickets)
	api.GET("/tickets/:id/qr", r.Tickets.TicketQR)

	// Admin endpoints
	admin := api.Group("/admin", r.Admin.RequireToken)
	admin.GET("/dashboard", r.Admin.GetSalesDashboard)

	admin.GET("/ticket-types", r.Admin.ListTicketTypes)
	admin.POST("/ticket-types", r.Admin.CreateTicketType)
	admin.GET("/ticket-types/:id", r.Admin.GetTicketType)
	admin.PUT("/ticket-types/:id", r.Admin.UpdateTicketType)
	admin.PATCH("/ticket-types/:id", r.Admin.PatchTicketType)
	admin.DELETE("/ticket-types/:id", r.Admin.DeleteTicketType)
	admin.POST("/ticket-types/:id/benefits", r.Admin.AddBenefit)

	admin.GET("/orders", r.Admin.ListOrders)
	admin.GET("/orders/:id", r.Admin.GetOrder)
	admin.POST("/orders/:id/confirm-payment", r.Admin.ConfirmPayment)
	admin.POST("/orders/:id/cancel", r.Admin.CancelOrder)
	admin.GET("/payments", r.Admin.ListPayments)

	admin.GET("/tickets", r.Admin.ListTickets)
	admin.POST("/tickets/:id/check-in", r.Admin.CheckInTicket)

	admin.GET("/discount-codes", r.Admin.ListDiscountCodes)
	admin.POST("/discount-codes", r.Admin.CreateDiscountCode)
	admin.GET("/discount-codes/:id", r.Admin.GetDiscountCode)

	// Health check
	e.GET("/health", r.Health.Check)
}

// HealthHandler reports Redis reachability and the ticket API breaker.
// Redis is optional; a nil client is reported as disabled.
type HealthHandler struct {
	redis   *redis.Client
	breaker func() utils.State
}

func NewHealthHandler(redisClient *redis.Client, breaker func() utils.State) *HealthHandler {
	return &HealthHandler{redis: redisClient, breaker: breaker}
}

// Check - liveness and dependency status
func (h *HealthHandler) Check(c echo.Context) error {
	body := map[string]string{"status": "healthy", "redis": "disabled"}
	if h.breaker != nil {
		body["ticket_api"] = h.breaker().String()
	}

	if h.redis != nil {
		if err := utils.RedisHealthCheck(h.redis); err != nil {
			body["status"] = "unhealthy"
			body["redis"] = "down"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body["redis"] = "up"
	}
	return c.JSON(http.StatusOK, body)
}
