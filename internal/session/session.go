// Package session holds the checkout session: the cart, event and order
// reference a shopper carries between ticket selection and payment.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ticket-storefront/internal/status"
	"ticket-storefront/models"
)

type State string

const (
	StateEditing         State = "editing"
	StateSubmitting      State = "submitting"
	StateAwaitingPayment State = "awaiting_payment"
	StateRedirected      State = "redirected"
)

type Checkout struct {
	ID             string                  `json:"id"`
	EventID        int64                   `json:"event_id"`
	Cart           []models.CartItem       `json:"cart"`
	Discount       *models.AppliedDiscount `json:"discount,omitempty"`
	OrderReference string                  `json:"order_reference,omitempty"`
	State          State                   `json:"state"`
	Notice         string                  `json:"notice,omitempty"`
	RedirectTo     string                  `json:"redirect_to,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

func New() *Checkout {
	return &Checkout{
		ID:        uuid.NewString(),
		Cart:      []models.CartItem{},
		State:     StateEditing,
		CreatedAt: time.Now().UTC(),
	}
}

// HasCart reports whether the session has an event and at least one line.
func (c *Checkout) HasCart() bool {
	return c != nil && c.EventID != 0 && len(c.Cart) > 0
}

// Reset drops the cart, event, discount and order reference, keeping the id.
func (c *Checkout) Reset() {
	c.EventID = 0
	c.Cart = []models.CartItem{}
	c.Discount = nil
	c.OrderReference = ""
	c.State = StateEditing
	c.Notice = ""
	c.RedirectTo = ""
}

type Store interface {
	// Load returns status.ErrSessionNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*Checkout, error)
	Save(ctx context.Context, c *Checkout) error
	Clear(ctx context.Context, id string) error
}

// LoadOrNew returns the stored session for id, or a fresh unsaved one when
// id is empty, unknown or expired.
func LoadOrNew(ctx context.Context, store Store, id string) (*Checkout, error) {
	if id == "" {
		return New(), nil
	}
	c, err := store.Load(ctx, id)
	if errors.Is(err, status.ErrSessionNotFound) {
		return New(), nil
	}
	return c, err
}
