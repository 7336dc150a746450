package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/internal/session"
	"ticket-storefront/internal/status"
	"ticket-storefront/models"
	"ticket-storefront/monitoring"
)

type CallbackState string

const (
	CallbackLoading CallbackState = "loading"
	CallbackSuccess CallbackState = "success"
	CallbackFailed  CallbackState = "failed"
)

const (
	messageNoReference     = "No payment reference found."
	messagePaymentSuccess  = "Payment successful! Your tickets have been sent to your email."
	messagePaymentRejected = "Payment was not successful. Please try again."
	messageVerifyFailed    = "Could not verify payment. Please contact support."
)

type VerifyAPI interface {
	VerifyPayment(ctx context.Context, reference string) (models.PaymentVerification, error)
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

type CallbackResult struct {
	State         CallbackState `json:"state"`
	Message       string        `json:"message"`
	Reference     string        `json:"reference,omitempty"`
	OrderNumber   string        `json:"order_number,omitempty"`
	RedirectTo    string        `json:"redirect_to,omitempty"`
	RedirectAfter int64         `json:"redirect_after_ms,omitempty"`
	RetryPath     string        `json:"retry_path,omitempty"`
}

type CallbackConfig struct {
	ConfirmationPath string
	CheckoutPath     string
	RedirectDelay    time.Duration
}

type PaymentCallbackService struct {
	api       VerifyAPI
	store     session.Store
	navigator Navigator
	scheduler Scheduler
	cfg       CallbackConfig
	monitor   *monitoring.Monitor
	logger    *logrus.Logger
}

func NewPaymentCallbackService(
	api VerifyAPI,
	store session.Store,
	navigator Navigator,
	scheduler Scheduler,
	cfg CallbackConfig,
	monitor *monitoring.Monitor,
	logger *logrus.Logger,
) *PaymentCallbackService {
	return &PaymentCallbackService{
		api:       api,
		store:     store,
		navigator: navigator,
		scheduler: scheduler,
		cfg:       cfg,
		monitor:   monitor,
		logger:    logger,
	}
}

// Handle verifies the provider reference in query. It never retries; a
// failed result points the shopper back to checkout.
func (s *PaymentCallbackService) Handle(ctx context.Context, sessionID string, query url.Values) CallbackResult {
	reference := strings.TrimSpace(query.Get("reference"))
	if reference == "" {
		// some providers send trxref instead
		reference = strings.TrimSpace(query.Get("trxref"))
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"session_id": sessionID,
		"reference":  reference,
	})

	if reference == "" {
		s.monitor.TrackVerification("missing_reference")
		log.WithError(status.ErrReferenceMissing).Warn("payment callback without reference")
		return s.failed(reference, messageNoReference)
	}

	v, err := s.api.VerifyPayment(ctx, reference)
	if err != nil {
		s.monitor.TrackVerification("error")
		log.WithError(err).Error("payment verification failed")
		message := messageVerifyFailed
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			message = apiErr.Message
		}
		return s.failed(reference, message)
	}

	if v.Status != models.VerificationSuccess {
		s.monitor.TrackVerification("not_successful")
		log.WithField("status", v.Status).Info("payment not successful")
		return s.failed(reference, messagePaymentRejected)
	}

	if sessionID != "" {
		if err := s.store.Clear(ctx, sessionID); err != nil {
			log.WithError(err).Error("failed to clear checkout session")
		}
		s.scheduleConfirmation(sessionID, log)
	}

	s.monitor.TrackVerification("success")
	log.WithField("order_number", v.OrderNumber).Info("payment verified")

	return CallbackResult{
		State:         CallbackSuccess,
		Message:       messagePaymentSuccess,
		Reference:     reference,
		OrderNumber:   v.OrderNumber,
		RedirectTo:    s.cfg.ConfirmationPath,
		RedirectAfter: s.cfg.RedirectDelay.Milliseconds(),
	}
}

func (s *PaymentCallbackService) scheduleConfirmation(sessionID string, log *logrus.Entry) {
	if s.navigator == nil || s.scheduler == nil {
		return
	}
	to := s.cfg.ConfirmationPath
	s.scheduler.Schedule(s.cfg.RedirectDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.navigator.Navigate(ctx, sessionID, to); err != nil {
			log.WithError(err).Warn("failed to push confirmation navigation")
		}
	})
}

func (s *PaymentCallbackService) failed(reference, message string) CallbackResult {
	return CallbackResult{
		State:     CallbackFailed,
		Message:   message,
		Reference: reference,
		RetryPath: s.cfg.CheckoutPath,
	}
}
