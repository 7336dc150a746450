package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ticket-storefront/internal/status"
	"ticket-storefront/models"
)

type TicketLookup interface {
	TicketType(id int64) (models.TicketType, bool)
}

// Catalog is a TicketLookup over a fetched list of ticket types.
type Catalog map[int64]models.TicketType

func NewCatalog(types []models.TicketType) Catalog {
	c := make(Catalog, len(types))
	for _, tt := range types {
		c[tt.ID] = tt
	}
	return c
}

func (c Catalog) TicketType(id int64) (models.TicketType, bool) {
	tt, ok := c[id]
	return tt, ok
}

// Cart is an ordered list of lines with no zero-quantity entries.
type Cart struct {
	items []models.CartItem
}

func NewCart(items []models.CartItem) *Cart {
	c := &Cart{items: make([]models.CartItem, 0, len(items))}
	for _, item := range items {
		if item.Quantity > 0 {
			c.items = append(c.items, item)
		}
	}
	return c
}

func (c *Cart) Items() []models.CartItem {
	return append([]models.CartItem{}, c.items...)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Quantity(ticketTypeID int64) int {
	if i := c.index(ticketTypeID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Change adds delta to the stored quantity and returns the new quantity.
func (c *Cart) Change(tt models.TicketType, delta int) int {
	return c.Set(tt, c.Quantity(tt.ID)+delta)
}

// Set stores quantity clamped to [0, tt.PurchaseLimit()]. Zero removes the line.
func (c *Cart) Set(tt models.TicketType, quantity int) int {
	quantity = max(0, min(quantity, tt.PurchaseLimit()))

	i := c.index(tt.ID)
	switch {
	case quantity == 0 && i >= 0:
		c.items = append(c.items[:i], c.items[i+1:]...)
	case quantity == 0:
	case i >= 0:
		c.items[i].Quantity = quantity
	default:
		c.items = append(c.items, models.CartItem{
			TicketTypeID: tt.ID,
			Name:         tt.Name,
			Price:        tt.Price,
			Quantity:     quantity,
		})
	}
	return quantity
}

// Subtotal prices each line from lookup. Lines for unknown ids contribute nothing.
func (c *Cart) Subtotal(lookup TicketLookup) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.items {
		tt, ok := lookup.TicketType(item.TicketTypeID)
		if !ok {
			continue
		}
		subtotal = subtotal.Add(tt.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// SnapshotSubtotal prices each line at the price captured when it was selected.
func (c *Cart) SnapshotSubtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

func (c *Cart) TotalTickets() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Validate checks every line against current stock and purchase rules.
func (c *Cart) Validate(lookup TicketLookup) error {
	for _, item := range c.items {
		tt, ok := lookup.TicketType(item.TicketTypeID)
		if !ok {
			return notice(status.ErrUnknownTicketType, fmt.Sprintf("%s is no longer available.", item.Name))
		}
		if !tt.IsActive || tt.SoldOut || tt.Remaining() == 0 {
			return notice(status.ErrTicketUnavailable, fmt.Sprintf("%s is sold out.", tt.Name))
		}
		if tt.MinPurchase > 0 && item.Quantity < tt.MinPurchase {
			return notice(status.ErrBelowMinPurchase, fmt.Sprintf("%s requires at least %d tickets per order.", tt.Name, tt.MinPurchase))
		}
		if item.Quantity > tt.PurchaseLimit() {
			return notice(status.ErrOverPurchaseLimit, fmt.Sprintf("Only %d %s tickets can be bought in one order.", tt.PurchaseLimit(), tt.Name))
		}
	}
	return nil
}

func (c *Cart) OrderLines() []models.OrderLine {
	lines := make([]models.OrderLine, len(c.items))
	for i, item := range c.items {
		lines[i] = models.OrderLine{TicketTypeID: item.TicketTypeID, Quantity: item.Quantity}
	}
	return lines
}

func (c *Cart) index(ticketTypeID int64) int {
	for i, item := range c.items {
		if item.TicketTypeID == ticketTypeID {
			return i
		}
	}
	return -1
}

// Total is subtotal minus the applied discount, never below zero.
func Total(subtotal decimal.Decimal, discount *models.AppliedDiscount) decimal.Decimal {
	if discount == nil {
		return subtotal
	}
	total := subtotal.Sub(discount.Amount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
