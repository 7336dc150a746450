package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/models"
)

// AdminAPI is the organizer side of the ticket API.
type AdminAPI interface {
	ListTicketTypes(ctx context.Context, params apiclient.ListParams) ([]models.TicketType, error)
	GetTicketType(ctx context.Context, id int64) (models.TicketType, error)
	CreateTicketType(ctx context.Context, in models.TicketTypeInput) (models.TicketType, error)
	UpdateTicketType(ctx context.Context, id int64, in models.TicketTypeInput) (models.TicketType, error)
	PatchTicketType(ctx context.Context, id int64, patch models.TicketTypePatch) (models.TicketType, error)
	DeleteTicketType(ctx context.Context, id int64) error
	AddBenefit(ctx context.Context, ticketTypeID int64, benefit models.TicketBenefit) (models.TicketBenefit, error)

	ListOrders(ctx context.Context, params apiclient.ListParams) ([]models.Order, error)
	ListAllOrders(ctx context.Context, params apiclient.ListParams) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ConfirmPayment(ctx context.Context, id int64, req models.ConfirmPaymentRequest) (models.Order, error)
	CancelOrder(ctx context.Context, id int64) (models.Order, error)

	ListTickets(ctx context.Context, params apiclient.ListParams) ([]models.Ticket, error)
	CheckInTicket(ctx context.Context, id int64) (models.Ticket, error)

	ListDiscountCodes(ctx context.Context, params apiclient.ListParams) ([]models.DiscountCode, error)
	GetDiscountCode(ctx context.Context, id int64) (models.DiscountCode, error)
	CreateDiscountCode(ctx context.Context, in models.DiscountCode) (models.DiscountCode, error)
}

type AdminHandler struct {
	api    AdminAPI
	logger *logrus.Logger
}

func NewAdminHandler(api AdminAPI, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{api: api, logger: logger}
}

// RequireToken forwards the caller's bearer token to the ticket API.
// Permission checks stay with the API.
func (h *AdminHandler) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, found := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Admin access required"})
		}

		req := c.Request()
		c.SetRequest(req.WithContext(apiclient.WithAuthToken(req.Context(), token)))
		return next(c)
	}
}

func listParams(c echo.Context) apiclient.ListParams {
	p := apiclient.ListParams{
		Event:         queryInt(c, "event"),
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		Email:         c.QueryParam("email"),
		TicketNumber:  c.QueryParam("ticket_number"),
		Page:          int(queryInt(c, "page")),
		PageSize:      int(queryInt(c, "page_size")),
	}
	switch c.QueryParam("available") {
	case "true":
		p.Available = &[]bool{true}[0]
	case "false":
		p.Available = &[]bool{false}[0]
	}
	return p
}

// Ticket types

// ListTicketTypes - all ticket types, filtered by event or availability
func (h *AdminHandler) ListTicketTypes(c echo.Context) error {
	types, err := h.api.ListTicketTypes(c.Request().Context(), listParams(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, types)
}

// GetTicketType - one ticket type with its benefits
func (h *AdminHandler) GetTicketType(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket type id")
	}
	tt, err := h.api.GetTicketType(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tt)
}

// CreateTicketType - create a ticket type from the admin form
func (h *AdminHandler) CreateTicketType(c echo.Context) error {
	var in models.TicketTypeInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(in.Name) == "" {
		return badRequest(c, "Name is required")
	}
	tt, err := h.api.CreateTicketType(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, tt)
}

// UpdateTicketType - replace a ticket type
func (h *AdminHandler) UpdateTicketType(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket type id")
	}
	var in models.TicketTypeInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	tt, err := h.api.UpdateTicketType(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tt)
}

// PatchTicketType - change selected fields, e.g. toggling is_active
func (h *AdminHandler) PatchTicketType(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket type id")
	}
	var patch models.TicketTypePatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	tt, err := h.api.PatchTicketType(c.Request().Context(), id, patch)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tt)
}

// DeleteTicketType - remove a ticket type
func (h *AdminHandler) DeleteTicketType(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket type id")
	}
	if err := h.api.DeleteTicketType(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddBenefit - append a benefit to a ticket type
func (h *AdminHandler) AddBenefit(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket type id")
	}
	var benefit models.TicketBenefit
	if err := c.Bind(&benefit); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(benefit.Title) == "" {
		return badRequest(c, "Title is required")
	}
	created, err := h.api.AddBenefit(c.Request().Context(), id, benefit)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Orders

// ListOrders - orders filtered by event, status or payment status
func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.api.ListOrders(c.Request().Context(), listParams(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder - one order with its items
func (h *AdminHandler) GetOrder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id")
	}
	order, err := h.api.GetOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, order)
}

// ConfirmPayment - mark an order paid by hand
func (h *AdminHandler) ConfirmPayment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id")
	}
	var req models.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PaymentMethod == "" || req.PaymentReference == "" {
		return badRequest(c, "payment_method and payment_reference are required")
	}

	order, err := h.api.ConfirmPayment(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	h.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"reference":    req.PaymentReference,
	}).Info("payment confirmed by admin")
	return c.JSON(http.StatusOK, order)
}

// CancelOrder - cancel an unpaid order
func (h *AdminHandler) CancelOrder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id")
	}
	order, err := h.api.CancelOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	h.logger.WithField("order_number", order.OrderNumber).Info("order cancelled by admin")
	return c.JSON(http.StatusOK, order)
}

type paymentRow struct {
	OrderNumber      string          `json:"order_number"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentStatus    string          `json:"payment_status"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	PaymentDate      *time.Time      `json:"payment_date"`
}

// ListPayments - payment view of orders
func (h *AdminHandler) ListPayments(c echo.Context) error {
	orders, err := h.api.ListOrders(c.Request().Context(), listParams(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	rows := make([]paymentRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, paymentRow{
			OrderNumber:      o.OrderNumber,
			CustomerName:     o.CustomerName,
			CustomerEmail:    o.CustomerEmail,
			Amount:           o.TotalAmount,
			PaymentStatus:    o.PaymentStatus,
			PaymentMethod:    o.PaymentMethod,
			PaymentReference: o.PaymentReference,
			PaymentDate:      o.PaymentDate,
		})
	}
	return c.JSON(http.StatusOK, rows)
}

type salesDashboard struct {
	Event           int64           `json:"event,omitempty"`
	TotalOrders     int             `json:"total_orders"`
	PaidOrders      int             `json:"paid_orders"`
	PendingOrders   int             `json:"pending_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
	TicketsSold     int             `json:"tickets_sold"`
	Revenue         decimal.Decimal `json:"revenue"`
}

// GetSalesDashboard - order and revenue totals over every page, optionally for one event
func (h *AdminHandler) GetSalesDashboard(c echo.Context) error {
	eventID := queryInt(c, "event")
	orders, err := h.api.ListAllOrders(c.Request().Context(), apiclient.ListParams{Event: eventID})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	d := salesDashboard{Event: eventID, TotalOrders: len(orders), Revenue: decimal.Zero}
	for _, o := range orders {
		switch {
		case o.PaymentStatus == models.PaymentStatusSuccessful:
			d.PaidOrders++
			d.TicketsSold += o.TotalTickets
			d.Revenue = d.Revenue.Add(o.TotalAmount)
		case o.Status == models.OrderStatusCancelled:
			d.CancelledOrders++
		case o.Status == models.OrderStatusPending:
			d.PendingOrders++
		}
	}
	return c.JSON(http.StatusOK, d)
}

// Tickets

// ListTickets - issued tickets filtered by event, status or number
func (h *AdminHandler) ListTickets(c echo.Context) error {
	tickets, err := h.api.ListTickets(c.Request().Context(), listParams(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tickets)
}

// CheckInTicket - admit a ticket at the door
func (h *AdminHandler) CheckInTicket(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket id")
	}
	ticket, err := h.api.CheckInTicket(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// Discount codes

// ListDiscountCodes - all discount codes
func (h *AdminHandler) ListDiscountCodes(c echo.Context) error {
	codes, err := h.api.ListDiscountCodes(c.Request().Context(), listParams(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, codes)
}

// GetDiscountCode - one discount code
func (h *AdminHandler) GetDiscountCode(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid discount code id")
	}
	code, err := h.api.GetDiscountCode(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, code)
}

// CreateDiscountCode - create a discount code; codes are stored upper case
func (h *AdminHandler) CreateDiscountCode(c echo.Context) error {
	var in models.DiscountCode
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return badRequest(c, "Code is required")
	}
	if in.DiscountType != models.DiscountPercentage && in.DiscountType != models.DiscountFixed {
		return badRequest(c, "discount_type must be percentage or fixed")
	}

	created, err := h.api.CreateDiscountCode(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, created)
}
