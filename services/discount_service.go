package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/session"
	"ticket-storefront/internal/status"
	"ticket-storefront/models"
	"ticket-storefront/monitoring"
)

type DiscountAPI interface {
	ValidateDiscountCode(ctx context.Context, req models.DiscountValidationRequest) (models.DiscountValidation, error)
}

type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type DiscountService struct {
	api     DiscountAPI
	store   session.Store
	limiter AttemptLimiter
	monitor *monitoring.Monitor
	logger  *logrus.Logger
}

func NewDiscountService(api DiscountAPI, store session.Store, limiter AttemptLimiter, monitor *monitoring.Monitor, logger *logrus.Logger) *DiscountService {
	return &DiscountService{api: api, store: store, limiter: limiter, monitor: monitor, logger: logger}
}

// Apply validates code against the session's cart. Only a valid answer from
// the API replaces sess.Discount; any failure leaves it as it was.
func (s *DiscountService) Apply(ctx context.Context, sess *session.Checkout, code string) (*models.AppliedDiscount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, notice(status.ErrInvalidDiscount, "Please enter a discount code.")
	}
	if !sess.HasCart() {
		return nil, status.ErrEmptyCart
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "discount:"+sess.ID)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("discount rate limiter unavailable")
		} else if !allowed {
			s.monitor.TrackDiscount("rate_limited")
			return nil, notice(status.ErrRateLimited, "Too many discount attempts. Please wait a minute and try again.")
		}
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"session_id": sess.ID,
		"event_id":   sess.EventID,
		"code":       code,
	})

	subtotal := NewCart(sess.Cart).SnapshotSubtotal()
	result, err := s.api.ValidateDiscountCode(ctx, models.DiscountValidationRequest{
		Code:       code,
		EventID:    sess.EventID,
		OrderTotal: subtotal,
	})
	if err != nil {
		s.monitor.TrackDiscount("error")
		log.WithError(err).Error("discount validation failed")
		return nil, err
	}

	if !result.Valid {
		s.monitor.TrackDiscount("invalid")
		message := result.Error
		if message == "" {
			message = "Invalid discount code."
		}
		log.WithField("reason", message).Info("discount code rejected")
		return nil, notice(status.ErrInvalidDiscount, message)
	}

	applied := &models.AppliedDiscount{Code: code, Amount: result.DiscountAmount}
	previous := sess.Discount
	sess.Discount = applied
	if err := s.store.Save(ctx, sess); err != nil {
		sess.Discount = previous
		return nil, err
	}

	s.monitor.TrackDiscount("valid")
	log.WithField("amount", applied.Amount.String()).Info("discount code applied")
	return applied, nil
}

func (s *DiscountService) Remove(ctx context.Context, sess *session.Checkout) error {
	if sess.Discount == nil {
		return nil
	}
	previous := sess.Discount
	sess.Discount = nil
	if err := s.store.Save(ctx, sess); err != nil {
		sess.Discount = previous
		return err
	}
	return nil
}
