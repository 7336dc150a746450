package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/internal/session"
	"ticket-storefront/internal/status"
	"ticket-storefront/models"
)

type StorefrontAPI interface {
	GetEventBySlug(ctx context.Context, slug string) (models.Event, error)
	ListPublicTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error)
	GetTicketType(ctx context.Context, id int64) (models.TicketType, error)
}

type EventPage struct {
	Event       models.Event        `json:"event"`
	TicketTypes []models.TicketType `json:"ticket_types"`
}

// Summary is what the cart and checkout pages render.
type Summary struct {
	SessionID      string                  `json:"session_id"`
	EventID        int64                   `json:"event_id,omitempty"`
	Items          []models.CartItem       `json:"items"`
	TotalTickets   int                     `json:"total_tickets"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	Discount       *models.AppliedDiscount `json:"discount,omitempty"`
	Total          decimal.Decimal         `json:"total"`
	State          session.State           `json:"state"`
	Notice         string                  `json:"notice,omitempty"`
	OrderReference string                  `json:"order_reference,omitempty"`
	RedirectTo     string                  `json:"redirect_to,omitempty"`
}

func Summarize(sess *session.Checkout) Summary {
	cart := NewCart(sess.Cart)
	subtotal := cart.SnapshotSubtotal()
	return Summary{
		SessionID:      sess.ID,
		EventID:        sess.EventID,
		Items:          cart.Items(),
		TotalTickets:   cart.TotalTickets(),
		Subtotal:       subtotal,
		Discount:       sess.Discount,
		Total:          Total(subtotal, sess.Discount),
		State:          sess.State,
		Notice:         sess.Notice,
		OrderReference: sess.OrderReference,
		RedirectTo:     sess.RedirectTo,
	}
}

type StorefrontService struct {
	api    StorefrontAPI
	store  session.Store
	logger *logrus.Logger
}

func NewStorefrontService(api StorefrontAPI, store session.Store, logger *logrus.Logger) *StorefrontService {
	return &StorefrontService{api: api, store: store, logger: logger}
}

func (s *StorefrontService) EventPage(ctx context.Context, slug string) (EventPage, error) {
	event, err := s.api.GetEventBySlug(ctx, slug)
	if err != nil {
		return EventPage{}, err
	}

	types, err := s.api.ListPublicTicketTypes(ctx, event.ID)
	if err != nil {
		return EventPage{}, err
	}

	return EventPage{Event: event, TicketTypes: types}, nil
}

// ChangeQuantity applies a clamped quantity change and saves the session.
// Selecting a ticket type of another event starts a new cart. Any applied
// discount is dropped because its amount was priced for the old cart.
func (s *StorefrontService) ChangeQuantity(ctx context.Context, sess *session.Checkout, ticketTypeID int64, delta int) (Summary, error) {
	tt, err := s.api.GetTicketType(ctx, ticketTypeID)
	if apiclient.IsNotFound(err) {
		return Summary{}, notice(status.ErrUnknownTicketType, "This ticket type is no longer available.")
	}
	if err != nil {
		return Summary{}, err
	}

	if delta > 0 && (!tt.IsActive || tt.SoldOut || tt.PurchaseLimit() == 0) {
		return Summary{}, notice(status.ErrTicketUnavailable, fmt.Sprintf("%s is sold out.", tt.Name))
	}

	switching := sess.EventID != 0 && tt.Event != 0 && sess.EventID != tt.Event

	// A selection for another event starts from an empty cart; the session
	// is only reset once that change actually adds something.
	cart := NewCart(sess.Cart)
	if switching {
		cart = NewCart(nil)
	}
	before := cart.Quantity(tt.ID)
	after := cart.Change(tt, delta)
	if after == before {
		return Summarize(sess), nil
	}

	if switching {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"session_id": sess.ID,
			"from_event": sess.EventID,
			"to_event":   tt.Event,
		}).Info("switching cart to another event")
		sess.Reset()
	}
	if tt.Event != 0 {
		sess.EventID = tt.Event
	}

	sess.Cart = cart.Items()
	sess.Discount = nil
	sess.State = session.StateEditing
	sess.Notice = ""
	if err := s.store.Save(ctx, sess); err != nil {
		return Summary{}, err
	}
	return Summarize(sess), nil
}

// Abandon discards the session's cart, event and discount.
func (s *StorefrontService) Abandon(ctx context.Context, sess *session.Checkout) error {
	if err := s.store.Clear(ctx, sess.ID); err != nil {
		return err
	}
	sess.Reset()
	return nil
}
