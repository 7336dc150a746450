package models

import (
	"github.com/shopspring/decimal"
)

// CartItem is a client-held line: unit price is a snapshot taken at selection.
type CartItem struct {
	TicketTypeID int64           `json:"ticket_type_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
