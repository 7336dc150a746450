// Package paywidget drives the provider's payment popup in the shopper's
// browser over a realtime channel and reports how it ended.
package paywidget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ticket-storefront/utils"
)

const (
	TypeOpenPayment      = "open_payment"
	TypePaymentSuccess   = "payment_success"
	TypePaymentCancelled = "payment_cancelled"
	TypeNavigate         = "navigate"
)

var ErrChannelClosed = errors.New("paywidget: channel closed before the payment finished")

// Message is the envelope exchanged with the browser on a checkout channel.
type Message struct {
	Type             string `json:"type"`
	Attempt          string `json:"attempt,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	Reference        string `json:"reference,omitempty"`
	Amount           string `json:"amount,omitempty"`
	Email            string `json:"email,omitempty"`
	To               string `json:"to,omitempty"`
}

type Messenger interface {
	Publish(ctx context.Context, channel string, msg Message) error
	// Subscribe delivers messages published on channel until cancel is called.
	Subscribe(ctx context.Context, channel string) (msgs <-chan Message, cancel func(), err error)
}

type Request struct {
	SessionID        string
	AccessCode       string
	AuthorizationURL string
	Reference        string
	Amount           decimal.Decimal
	Email            string
}

// Outcome is either a provider reference or a cancellation.
type Outcome struct {
	Reference string
	Cancelled bool
}

func Channel(sessionID string) string {
	return "checkout-" + sessionID
}

type ChannelWidget struct {
	messenger Messenger
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewChannelWidget(messenger Messenger, timeout time.Duration, logger *logrus.Logger) *ChannelWidget {
	return &ChannelWidget{messenger: messenger, timeout: timeout, logger: logger}
}

// Open asks the browser to show the payment popup and waits for it to report
// success or cancellation. Replies tagged with another attempt are ignored.
func (w *ChannelWidget) Open(ctx context.Context, req Request) (Outcome, error) {
	attempt, err := utils.GenerateCode(8)
	if err != nil {
		return Outcome{}, fmt.Errorf("generate widget attempt: %w", err)
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	channel := Channel(req.SessionID)
	msgs, unsubscribe, err := w.messenger.Subscribe(ctx, channel)
	if err != nil {
		return Outcome{}, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	defer unsubscribe()

	err = w.messenger.Publish(ctx, channel, Message{
		Type:             TypeOpenPayment,
		Attempt:          attempt,
		AccessCode:       req.AccessCode,
		AuthorizationURL: req.AuthorizationURL,
		Reference:        req.Reference,
		Amount:           req.Amount.StringFixed(2),
		Email:            req.Email,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("publish %s: %w", TypeOpenPayment, err)
	}

	log := w.logger.WithContext(ctx).WithFields(logrus.Fields{
		"session_id": req.SessionID,
		"attempt":    attempt,
	})
	log.Info("payment widget opened")

	for {
		select {
		case <-ctx.Done():
			return Outcome{}, fmt.Errorf("waiting for payment widget: %w", ctx.Err())
		case msg, ok := <-msgs:
			if !ok {
				return Outcome{}, ErrChannelClosed
			}
			if msg.Attempt != attempt {
				continue
			}
			switch msg.Type {
			case TypePaymentSuccess:
				if msg.Reference == "" {
					log.Warn("payment widget reported success without a reference")
					continue
				}
				log.WithField("reference", msg.Reference).Info("payment widget succeeded")
				return Outcome{Reference: msg.Reference}, nil
			case TypePaymentCancelled:
				log.Info("payment widget cancelled")
				return Outcome{Cancelled: true}, nil
			}
		}
	}
}

// Navigate tells the browser holding sessionID to move to another route.
func (w *ChannelWidget) Navigate(ctx context.Context, sessionID, to string) error {
	if err := w.messenger.Publish(ctx, Channel(sessionID), Message{Type: TypeNavigate, To: to}); err != nil {
		return fmt.Errorf("publish %s: %w", TypeNavigate, err)
	}
	return nil
}
