package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/sirupsen/logrus"

	"ticket-storefront/internal/apiclient"
	"ticket-storefront/internal/paywidget"
	"ticket-storefront/internal/session"
	"ticket-storefront/security"
	"ticket-storefront/services"
)

const (
	vipTicketType = `{"id":1,"event":7,"name":"VIP","price":"150.00","quantity_available":100,"quantity_sold":90,
		"min_purchase":1,"max_purchase":4,"is_active":true,"is_visible":true,"is_available":true}`
	soldOutTicketType = `{"id":3,"event":7,"name":"Early Bird","price":"80.00","quantity_available":50,"quantity_sold":50,
		"min_purchase":1,"max_purchase":4,"is_active":true,"is_visible":true,"is_available":false,"sold_out":true}`
	summerFest = `{"id":7,"slug":"summer-fest","title":"Summer Fest","location":"Vientiane","status":"published","is_public":true}`
)

// fakeTicketAPI serves canned responses keyed by "METHOD /path/".
type fakeTicketAPI struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []*http.Request
}

func (f *fakeTicketAPI) handle(pattern string, status int, body string) {
	f.routes[pattern] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func (f *fakeTicketAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	h, ok := f.routes[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api")]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
		return
	}
	h(w, r)
}

func (f *fakeTicketAPI) last(method, path string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		r := f.requests[i]
		if r.Method == method && strings.TrimPrefix(r.URL.Path, "/api") == path {
			return r
		}
	}
	return nil
}

type scriptedWidget struct {
	outcome paywidget.Outcome
	err     error
	got     []paywidget.Request
}

func (w *scriptedWidget) Open(_ context.Context, req paywidget.Request) (paywidget.Outcome, error) {
	w.got = append(w.got, req)
	return w.outcome, w.err
}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string, string) error { return nil }

type recordingScheduler struct {
	delays []time.Duration
}

func (s *recordingScheduler) Schedule(delay time.Duration, _ func()) {
	s.delays = append(s.delays, delay)
}

type testServer struct {
	e         *echo.Echo
	api       *fakeTicketAPI
	store     *session.MemoryStore
	widget    *scriptedWidget
	scheduler *recordingScheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	api := &fakeTicketAPI{routes: map[string]http.HandlerFunc{}}
	api.handle("GET /events/by-slug/summer-fest/", http.StatusOK, summerFest)
	api.handle("GET /ticket/ticket-types/", http.StatusOK, `{"count":2,"results":[`+vipTicketType+`,`+soldOutTicketType+`]}`)
	api.handle("GET /ticket/ticket-types/1/", http.StatusOK, vipTicketType)
	api.handle("GET /ticket/ticket-types/3/", http.StatusOK, soldOutTicketType)

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api", Timeout: time.Second}, logger, nil)
	store := session.NewMemoryStore(time.Hour)
	widget := &scriptedWidget{}
	scheduler := &recordingScheduler{}
	validate := services.NewValidator()
	sessions := Sessions{Store: store, TTL: time.Hour}

	storefront := services.NewStorefrontService(client, store, logger)
	discounts := services.NewDiscountService(client, store, security.NewRateLimiter(nil, 5, time.Minute), nil, logger)
	checkout := services.NewCheckoutService(client, widget, nopNavigator{}, store, validate, "/payment/callback", nil, logger)
	callback := services.NewPaymentCallbackService(client, store, nopNavigator{}, scheduler, services.CallbackConfig{
		ConfirmationPath: "/booking-confirmation",
		CheckoutPath:     "/checkout",
		RedirectDelay:    2 * time.Second,
	}, nil, logger)

	e := echo.New()
	Router{
		Storefront: NewStorefrontHandler(storefront, sessions, logger),
		Checkout:   NewCheckoutHandler(checkout, discounts, sessions, "/events", logger),
		Payment:    NewPaymentHandler(callback, sessions),
		Tickets:    NewTicketHandler(client, validate, logger),
		Admin:      NewAdminHandler(client, logger),
		Health:     NewHealthHandler(nil, client.BreakerState),
	}.Register(e)

	return &testServer{e: e, api: api, store: store, widget: widget, scheduler: scheduler}
}

func (s *testServer) newRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

func (s *testServer) serve(req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec.Result()
}

func (s *testServer) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := s.newRequest(method, target, body)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}
