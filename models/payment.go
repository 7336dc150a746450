package models

import (
	"github.com/shopspring/decimal"
)

// PaymentInit is returned by the order's initialize_payment action.
type PaymentInit struct {
	Status           bool   `json:"status"`
	Message          string `json:"message"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

const VerificationSuccess = "success"

type PaymentVerification struct {
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	OrderStatus   string          `json:"order_status,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}
