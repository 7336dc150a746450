package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"ticket-storefront/internal/paywidget"
	"ticket-storefront/models"
)

// MockTicketAPI stands in for the ticket API client.
type MockTicketAPI struct {
	mock.Mock
}

func (m *MockTicketAPI) GetEventBySlug(ctx context.Context, slug string) (models.Event, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(models.Event), args.Error(1)
}

func (m *MockTicketAPI) ListPublicTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]models.TicketType), args.Error(1)
}

func (m *MockTicketAPI) GetTicketType(ctx context.Context, id int64) (models.TicketType, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.TicketType), args.Error(1)
}

func (m *MockTicketAPI) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockTicketAPI) InitializePayment(ctx context.Context, orderID int64) (models.PaymentInit, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.PaymentInit), args.Error(1)
}

func (m *MockTicketAPI) ValidateDiscountCode(ctx context.Context, req models.DiscountValidationRequest) (models.DiscountValidation, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.DiscountValidation), args.Error(1)
}

func (m *MockTicketAPI) VerifyPayment(ctx context.Context, reference string) (models.PaymentVerification, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(models.PaymentVerification), args.Error(1)
}

// MockWidget returns a scripted outcome.
type MockWidget struct {
	mock.Mock
}

func (m *MockWidget) Open(ctx context.Context, req paywidget.Request) (paywidget.Outcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(paywidget.Outcome), args.Error(1)
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNavigator) Navigate(_ context.Context, sessionID, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sessionID+" -> "+to)
	return nil
}

func (n *recordingNavigator) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.calls...)
}

// manualScheduler holds scheduled functions until run is called.
type manualScheduler struct {
	delays []time.Duration
	fns    []func()
}

func (s *manualScheduler) Schedule(delay time.Duration, fn func()) {
	s.delays = append(s.delays, delay)
	s.fns = append(s.fns, fn)
}

func (s *manualScheduler) run() {
	for _, fn := range s.fns {
		fn()
	}
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func vipType() models.TicketType {
	return models.TicketType{
		ID: 1, Event: 7, Name: "VIP", Price: dec("150"),
		QuantityAvailable: 100, QuantitySold: 90,
		MinPurchase: 1, MaxPurchase: 4, IsActive: true, IsVisible: true, IsAvailable: true,
	}
}

func generalType() models.TicketType {
	return models.TicketType{
		ID: 2, Event: 7, Name: "General", Price: dec("100"),
		QuantityAvailable: 500, QuantitySold: 10,
		MinPurchase: 1, MaxPurchase: 10, IsActive: true, IsVisible: true, IsAvailable: true,
	}
}
