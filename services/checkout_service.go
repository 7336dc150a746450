package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/internal/paywidget"
	"ticket-storefront/internal/session"
	"ticket-storefront/internal/status"
	"ticket-storefront/models"
	"ticket-storefront/monitoring"
)

const (
	noticePaymentCancelled = "Payment cancelled"
	noticePaymentInit      = "Failed to initialize payment. Please try again."
	noticePaymentFailed    = "Payment failed. Please try again."
)

var basicEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type CheckoutAPI interface {
	ListPublicTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
	InitializePayment(ctx context.Context, orderID int64) (models.PaymentInit, error)
}

type PaymentWidget interface {
	Open(ctx context.Context, req paywidget.Request) (paywidget.Outcome, error)
}

type Navigator interface {
	Navigate(ctx context.Context, sessionID, to string) error
}

// CustomerForm is the contact block of the checkout page.
type CustomerForm struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,basic_email"`
	Phone string `json:"phone" validate:"required"`
}

// Update sets one field by its input name.
func (f *CustomerForm) Update(field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "phone":
		f.Phone = value
	default:
		return fmt.Errorf("unknown checkout field %q", field)
	}
	return nil
}

func (f *CustomerForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
}

// NewValidator returns a validator with the checkout rules registered and
// field errors reported under their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return basicEmail.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]map[string]string{
	"name":  {"required": "Name is required"},
	"email": {"required": "Email is required", "basic_email": "Invalid email address"},
	"phone": {"required": "Phone number is required"},
}

type SubmitResult struct {
	State       session.State `json:"state"`
	OrderNumber string        `json:"order_number,omitempty"`
	RedirectTo  string        `json:"redirect_to,omitempty"`
	Notice      string        `json:"notice,omitempty"`
}

type CheckoutService struct {
	api          CheckoutAPI
	widget       PaymentWidget
	navigator    Navigator
	store        session.Store
	validate     *validator.Validate
	callbackPath string
	monitor      *monitoring.Monitor
	logger       *logrus.Logger
}

func NewCheckoutService(
	api CheckoutAPI,
	widget PaymentWidget,
	navigator Navigator,
	store session.Store,
	validate *validator.Validate,
	callbackPath string,
	monitor *monitoring.Monitor,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		api:          api,
		widget:       widget,
		navigator:    navigator,
		store:        store,
		validate:     validate,
		callbackPath: callbackPath,
		monitor:      monitor,
		logger:       logger,
	}
}

// Validate returns nil when the form can be submitted.
func (s *CheckoutService) Validate(ctx context.Context, form CustomerForm) ValidationErrors {
	form.normalize()
	err := s.validate.StructCtx(ctx, form)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{"form": err.Error()}
	}

	out := make(ValidationErrors, len(fieldErrors))
	for _, fe := range fieldErrors {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("Invalid %s", fe.Field())
		}
		out[fe.Field()] = msg
	}
	return out
}

// Submit places an order for the session's cart and waits for the payment
// widget. Every attempt creates a new order. A cancelled payment returns the
// session to editing without an error.
func (s *CheckoutService) Submit(ctx context.Context, sess *session.Checkout, form CustomerForm) (SubmitResult, error) {
	if !sess.HasCart() {
		return SubmitResult{}, status.ErrEmptyCart
	}

	form.normalize()
	if verrs := s.Validate(ctx, form); verrs != nil {
		return SubmitResult{State: session.StateEditing}, verrs
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"session_id": sess.ID,
		"event_id":   sess.EventID,
	})

	cart := NewCart(sess.Cart)
	types, err := s.api.ListPublicTicketTypes(ctx, sess.EventID)
	if err != nil {
		return s.fail(ctx, sess, log, "catalog_error", err, apiclient.Message(err))
	}
	if err := cart.Validate(NewCatalog(types)); err != nil {
		return s.fail(ctx, sess, log, "rejected", err, UserMessage(err))
	}

	if err := s.transition(ctx, sess, session.StateSubmitting, ""); err != nil {
		return SubmitResult{}, err
	}
	log.Info("checkout submitting")

	req := models.CreateOrderRequest{
		Event:         sess.EventID,
		CustomerName:  form.Name,
		CustomerEmail: form.Email,
		CustomerPhone: form.Phone,
		Items:         cart.OrderLines(),
	}
	if sess.Discount != nil {
		req.DiscountCode = sess.Discount.Code
	}

	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return s.fail(ctx, sess, log, "order_error", err, apiclient.Message(err))
	}
	log = log.WithField("order_number", order.OrderNumber)

	init, err := s.api.InitializePayment(ctx, order.ID)
	if err != nil {
		return s.fail(ctx, sess, log, "payment_init_error", err, apiclient.Message(err))
	}
	if !init.Status || init.AccessCode == "" {
		message := noticePaymentInit
		if init.Message != "" {
			message = init.Message
		}
		return s.fail(ctx, sess, log, "payment_init_error", status.ErrPaymentInit, message)
	}

	sess.OrderReference = order.OrderNumber
	if err := s.transition(ctx, sess, session.StateAwaitingPayment, ""); err != nil {
		return SubmitResult{}, err
	}
	log.Info("awaiting payment")

	reference := init.Reference
	if reference == "" {
		reference = order.OrderNumber
	}
	outcome, err := s.widget.Open(ctx, paywidget.Request{
		SessionID:        sess.ID,
		AccessCode:       init.AccessCode,
		AuthorizationURL: init.AuthorizationURL,
		Reference:        reference,
		Amount:           order.TotalAmount,
		Email:            order.CustomerEmail,
	})
	// The callback or an abandon may have ended the session while the
	// widget was open; an ended session is never written back.
	live := s.stillAwaiting(ctx, sess, log)

	if err != nil {
		if !live {
			s.monitor.TrackCheckout("widget_error")
			log.WithError(err).Warn("widget failed after the checkout session ended")
			return SubmitResult{State: session.StateEditing, OrderNumber: order.OrderNumber, Notice: noticePaymentFailed}, notice(err, noticePaymentFailed)
		}
		return s.fail(ctx, sess, log, "widget_error", err, noticePaymentFailed)
	}

	if outcome.Cancelled {
		if live {
			if err := s.transition(ctx, sess, session.StateEditing, noticePaymentCancelled); err != nil {
				return SubmitResult{}, err
			}
		}
		s.monitor.TrackCheckout("cancelled")
		log.Info("payment cancelled by shopper")
		return SubmitResult{State: session.StateEditing, OrderNumber: order.OrderNumber, Notice: noticePaymentCancelled}, nil
	}

	redirect := s.callbackPath + "?" + url.Values{"reference": {outcome.Reference}}.Encode()
	if live {
		sess.RedirectTo = redirect
		if err := s.transition(ctx, sess, session.StateRedirected, ""); err != nil {
			return SubmitResult{}, err
		}
		if s.navigator != nil {
			if err := s.navigator.Navigate(ctx, sess.ID, redirect); err != nil {
				log.WithError(err).Warn("failed to push callback navigation")
			}
		}
	}

	s.monitor.TrackCheckout("redirected")
	log.WithField("reference", outcome.Reference).Info("payment completed in widget")
	return SubmitResult{State: session.StateRedirected, OrderNumber: order.OrderNumber, RedirectTo: redirect}, nil
}

// stillAwaiting reports whether the stored session is still the one this
// submit put into awaiting_payment. A load error other than not-found keeps
// the submit going so the following save reports it.
func (s *CheckoutService) stillAwaiting(ctx context.Context, sess *session.Checkout, log *logrus.Entry) bool {
	current, err := s.store.Load(ctx, sess.ID)
	if errors.Is(err, status.ErrSessionNotFound) {
		log.Info("checkout session ended while the widget was open")
		return false
	}
	if err != nil {
		log.WithError(err).Warn("failed to reload checkout session")
		return true
	}
	if current.State != session.StateAwaitingPayment || current.OrderReference != sess.OrderReference {
		log.WithField("stored_state", current.State).Info("checkout session moved on while the widget was open")
		return false
	}
	return true
}

func (s *CheckoutService) transition(ctx context.Context, sess *session.Checkout, state session.State, message string) error {
	sess.State = state
	sess.Notice = message
	if state != session.StateRedirected {
		sess.RedirectTo = ""
	}
	return s.store.Save(ctx, sess)
}

// fail returns the session to editing with a notice. The returned error
// carries that notice.
func (s *CheckoutService) fail(ctx context.Context, sess *session.Checkout, log *logrus.Entry, outcome string, cause error, message string) (SubmitResult, error) {
	log.WithError(cause).WithField("outcome", outcome).Warn("checkout failed")
	s.monitor.TrackCheckout(outcome)

	if err := s.transition(ctx, sess, session.StateEditing, message); err != nil {
		log.WithError(err).Error("failed to save checkout session")
	}
	return SubmitResult{State: session.StateEditing, Notice: message}, notice(cause, message)
}
