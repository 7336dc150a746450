package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v5"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/models"
)

const qrSize = 256

type TicketAPI interface {
	ListTickets(ctx context.Context, params apiclient.ListParams) ([]models.Ticket, error)
	GetTicket(ctx context.Context, id int64) (models.Ticket, error)
}

type TicketHandler struct {
	api      TicketAPI
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewTicketHandler(api TicketAPI, validate *validator.Validate, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{api: api, validate: validate, logger: logger}
}

func (h *TicketHandler) holderEmail(c echo.Context) (string, bool) {
	email := strings.TrimSpace(c.QueryParam("email"))
	return email, h.validate.Var(email, "required,basic_email") == nil
}

// MyTickets - tickets issued to a holder email
func (h *TicketHandler) MyTickets(c echo.Context) error {
	email, ok := h.holderEmail(c)
	if !ok {
		return badRequest(c, "Invalid email address")
	}

	tickets, err := h.api.ListTickets(c.Request().Context(), apiclient.ListParams{Email: email})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, tickets)
}

// TicketQR - PNG QR code of the ticket code, only for the ticket holder
func (h *TicketHandler) TicketQR(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid ticket id")
	}
	email, ok := h.holderEmail(c)
	if !ok {
		return badRequest(c, "Invalid email address")
	}

	ticket, err := h.api.GetTicket(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	// Unknown and foreign tickets look the same to the caller.
	if !strings.EqualFold(ticket.HolderEmail, email) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "Ticket not found"})
	}

	png, err := qrcode.Encode(ticket.TicketCode, qrcode.Medium, qrSize)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
