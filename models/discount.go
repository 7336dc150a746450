package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type DiscountCode struct {
	ID                    int64           `json:"id,omitempty"`
	Code                  string          `json:"code"`
	Event                 *int64          `json:"event"`
	DiscountType          string          `json:"discount_type"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	MinPurchaseAmount     decimal.Decimal `json:"min_purchase_amount"`
	MaxUses               *int            `json:"max_uses"`
	MaxUsesPerUser        int             `json:"max_uses_per_user"`
	TimesUsed             int             `json:"times_used"`
	ValidFrom             time.Time       `json:"valid_from"`
	ValidUntil            time.Time       `json:"valid_until"`
	IsActive              bool            `json:"is_active"`
	IsValid               bool            `json:"is_valid"`
	ApplicableTicketTypes []int64         `json:"applicable_ticket_types"`
	CreatedAt             time.Time       `json:"created_at"`
}

type DiscountValidationRequest struct {
	Code       string          `json:"code"`
	EventID    int64           `json:"event_id"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

// DiscountValidation is the server's verdict; DiscountAmount is authoritative.
type DiscountValidation struct {
	Valid          bool            `json:"valid"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Error          string          `json:"error,omitempty"`
}

// AppliedDiscount is the single discount currently attached to a checkout.
type AppliedDiscount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}
