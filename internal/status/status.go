package status

import "errors"

var (
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrSessionNotFound   = errors.New("session: checkout session not found")
	ErrReferenceMissing  = errors.New("payment: no payment reference found")
	ErrPaymentInit       = errors.New("payment: failed to initialize payment")
	ErrInvalidDiscount   = errors.New("discount: invalid discount code")
	ErrUnknownTicketType = errors.New("cart: unknown ticket type")
	ErrBelowMinPurchase  = errors.New("cart: quantity below minimum purchase")
	ErrOverPurchaseLimit = errors.New("cart: quantity over purchase limit")
	ErrTicketUnavailable = errors.New("cart: ticket type not available")
	ErrRateLimited       = errors.New("ratelimit: too many attempts")
	ErrCircuitOpen       = errors.New("breaker: circuit breaker is open")
	ErrTooManyRequests   = errors.New("breaker: too many requests when circuit breaker is half open")
)
