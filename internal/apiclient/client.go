package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ticket-storefront/internal/status"
	"ticket-storefront/monitoring"
	"ticket-storefront/utils"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Breaker utils.BreakerSettings
}

// Client talks to the Ticket/Order API. It never retries; every call is
// one attempt bounded by the configured timeout.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
	breaker *utils.CircuitBreaker
	logger  *logrus.Logger
	monitor *monitoring.Monitor
}

func New(cfg Config, logger *logrus.Logger, monitor *monitoring.Monitor) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	settings := cfg.Breaker
	if settings.Name == "" {
		settings.Name = "ticket-api"
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		hc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: utils.NewCircuitBreakerWithSettings(settings),
		logger:  logger,
		monitor: monitor,
	}
}

type tokenKey struct{}

// WithAuthToken overrides the configured bearer token for calls made with ctx.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) tokenFor(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok && token != "" {
		return token
	}
	return c.token
}

type request struct {
	method   string
	endpoint string
	path     string
	query    url.Values
	body     any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return fmt.Errorf("encode %s request: %w", r.endpoint, err)
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var (
		respErr  *APIError
		respBody []byte
		code     int
	)
	start := time.Now()

	err := c.breaker.Execute(ctx, func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		hr, err := http.NewRequestWithContext(ctx, r.method, target, body)
		if err != nil {
			return err
		}
		hr.Header.Set("Content-Type", "application/json")
		hr.Header.Set("Accept", "application/json")
		if token := c.tokenFor(ctx); token != "" {
			hr.Header.Set("Authorization", "Bearer "+token)
		}

		hresp, err := c.hc.Do(hr)
		if err != nil {
			return transportError(err)
		}
		defer hresp.Body.Close()

		code = hresp.StatusCode
		respBody, err = io.ReadAll(hresp.Body)
		if err != nil {
			return transportError(err)
		}

		if code >= 200 && code <= 299 {
			return nil
		}
		respErr = newResponseError(code, respBody)
		if respErr.Retryable {
			return respErr
		}
		// 4xx is the caller's problem, not an outage
		return nil
	})

	c.monitor.TrackAPIRequest(r.endpoint, r.method, code, time.Since(start))

	if err != nil {
		if errors.Is(err, status.ErrCircuitOpen) || errors.Is(err, status.ErrTooManyRequests) {
			err = &APIError{StatusCode: http.StatusServiceUnavailable, Message: unavailableMessage, Retryable: true, Err: err}
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = transportError(err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			err = &APIError{Message: genericMessage, Err: err}
		}
		c.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"method": r.method,
			"path":   r.path,
		}).Error("ticket api request failed")
		return err
	}

	if respErr != nil {
		c.logger.WithContext(ctx).WithFields(logrus.Fields{
			"method": r.method,
			"path":   r.path,
			"status": respErr.StatusCode,
		}).Warn(respErr.Message)
		return respErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("path", r.path).Error("failed to decode ticket api response")
		return &APIError{StatusCode: code, Message: genericMessage, Err: err}
	}
	return nil
}

func transportError(err error) *APIError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Message: timeoutMessage, Retryable: true, Err: err}
	}
	return &APIError{Message: unreachableMessage, Retryable: true, Err: err}
}

// decodeList accepts both a {"results": [...]} envelope and a bare array.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Results == nil {
		return []T{}, nil
	}
	return envelope.Results, nil
}

// decodePage is decodeList that also reports whether the envelope links a
// next page. Bare arrays are a single page.
func decodePage[T any](raw json.RawMessage) ([]T, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		items, err := decodeList[T](raw)
		return items, false, err
	}

	var envelope struct {
		Results []T     `json:"results"`
		Next    *string `json:"next"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, false, err
	}
	if envelope.Results == nil {
		envelope.Results = []T{}
	}
	return envelope.Results, envelope.Next != nil && *envelope.Next != "", nil
}

func (c *Client) list(ctx context.Context, endpoint, path string, query url.Values, decode func(json.RawMessage) error) error {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: endpoint, path: path, query: query}, &raw); err != nil {
		return err
	}
	if err := decode(raw); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("path", path).Error("failed to decode ticket api list")
		return &APIError{StatusCode: http.StatusOK, Message: genericMessage, Err: err}
	}
	return nil
}

// ListParams are the shared filters of list endpoints. Zero values are omitted.
type ListParams struct {
	Event         int64
	Status        string
	PaymentStatus string
	Email         string
	TicketNumber  string
	Available     *bool
	Page          int
	PageSize      int
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Event > 0 {
		q.Set("event", fmt.Sprint(p.Event))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.PaymentStatus != "" {
		q.Set("payment_status", p.PaymentStatus)
	}
	if p.Email != "" {
		q.Set("email", p.Email)
	}
	if p.TicketNumber != "" {
		q.Set("ticket_number", p.TicketNumber)
	}
	if p.Available != nil {
		q.Set("available", fmt.Sprint(*p.Available))
	}
	if p.Page > 0 {
		q.Set("page", fmt.Sprint(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", fmt.Sprint(p.PageSize))
	}
	return q
}

func (c *Client) BreakerState() utils.State {
	return c.breaker.State()
}
