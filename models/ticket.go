package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryGeneral   = "general"
	CategoryPremium   = "premium"
	CategoryVIP       = "vip"
	CategoryVVIP      = "vvip"
	CategoryEarlyBird = "early_bird"
	CategoryStudent   = "student"
	CategoryGroup     = "group"
)

const (
	TicketStatusValid       = "valid"
	TicketStatusUsed        = "used"
	TicketStatusCancelled   = "cancelled"
	TicketStatusTransferred = "transferred"
	TicketStatusExpired     = "expired"
)

type TicketBenefit struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
}

// TicketType is a purchasable tier of an event.
type TicketType struct {
	ID                int64           `json:"id"`
	Event             int64           `json:"event,omitempty"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
	QuantitySold      int             `json:"quantity_sold"`
	QuantityRemaining int             `json:"quantity_remaining"`
	SaleStartDate     time.Time       `json:"sale_start_date"`
	SaleEndDate       time.Time       `json:"sale_end_date"`
	MinPurchase       int             `json:"min_purchase"`
	MaxPurchase       int             `json:"max_purchase"`
	IsActive          bool            `json:"is_active"`
	IsVisible         bool            `json:"is_visible"`
	IsAvailable       bool            `json:"is_available"`
	SoldOut           bool            `json:"sold_out"`
	Benefits          []TicketBenefit `json:"benefits"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Remaining is quantity_available - quantity_sold, never below zero.
func (t TicketType) Remaining() int {
	if r := t.QuantityAvailable - t.QuantitySold; r > 0 {
		return r
	}
	return 0
}

// PurchaseLimit is the largest quantity a single order may hold.
func (t TicketType) PurchaseLimit() int {
	return max(0, min(t.MaxPurchase, t.Remaining()))
}

// TicketTypeInput is the body of create and full update calls.
type TicketTypeInput struct {
	Event             int64           `json:"event,omitempty"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
	SaleStartDate     time.Time       `json:"sale_start_date"`
	SaleEndDate       time.Time       `json:"sale_end_date"`
	MinPurchase       int             `json:"min_purchase,omitempty"`
	MaxPurchase       int             `json:"max_purchase,omitempty"`
	IsActive          *bool           `json:"is_active,omitempty"`
	IsVisible         *bool           `json:"is_visible,omitempty"`
	Benefits          []TicketBenefit `json:"benefits,omitempty"`
}

// TicketTypePatch carries only the fields being changed.
type TicketTypePatch struct {
	Name              *string          `json:"name,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	QuantityAvailable *int             `json:"quantity_available,omitempty"`
	SaleStartDate     *time.Time       `json:"sale_start_date,omitempty"`
	SaleEndDate       *time.Time       `json:"sale_end_date,omitempty"`
	MinPurchase       *int             `json:"min_purchase,omitempty"`
	MaxPurchase       *int             `json:"max_purchase,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
	IsVisible         *bool            `json:"is_visible,omitempty"`
	Benefits          []TicketBenefit  `json:"benefits,omitempty"`
}

// Ticket is a single admission credential issued against a paid order.
type Ticket struct {
	ID             int64      `json:"id"`
	TicketNumber   string     `json:"ticket_number"`
	TicketCode     string     `json:"ticket_code"`
	TicketType     int64      `json:"ticket_type"`
	TicketTypeName string     `json:"ticket_type_name,omitempty"`
	Event          int64      `json:"event"`
	EventTitle     string     `json:"event_title,omitempty"`
	EventDate      string     `json:"event_date,omitempty"`
	EventLocation  string     `json:"event_location,omitempty"`
	HolderName     string     `json:"holder_name"`
	HolderEmail    string     `json:"holder_email"`
	HolderPhone    string     `json:"holder_phone"`
	Status         string     `json:"status"`
	CheckedIn      bool       `json:"checked_in"`
	CheckedInAt    *time.Time `json:"checked_in_at"`
	QRCode         string     `json:"qr_code"`
	CreatedAt      time.Time  `json:"created_at"`
}
