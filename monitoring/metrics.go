package monitoring

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sessionKeyPattern = "checkout:*"

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total requests sent to the ticket API",
		},
		[]string{"endpoint", "method", "code"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Latency of ticket API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	checkoutSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_submissions_total",
			Help: "Checkout submissions by outcome",
		},
		[]string{"outcome"},
	)

	discountValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_validations_total",
			Help: "Discount code validations by outcome",
		},
		[]string{"outcome"},
	)

	paymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment callback verifications by outcome",
		},
		[]string{"outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_sessions_active",
			Help: "Checkout sessions currently stored in redis",
		},
	)
)

// Monitor records storefront metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	redis  *redis.Client
	logger *logrus.Logger
}

func NewMonitor(redisClient *redis.Client, logger *logrus.Logger) *Monitor {
	return &Monitor{redis: redisClient, logger: logger}
}

// Run collects gauges every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if m == nil || m.redis == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.collectSessionMetrics(ctx); err != nil {
				m.logger.WithError(err).Warn("failed to collect session metrics")
			}
		}
	}
}

func (m *Monitor) collectSessionMetrics(ctx context.Context) error {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, sessionKeyPattern, 100).Result()
		if err != nil {
			return err
		}
		total += len(keys)
		if next == 0 {
			break
		}
		cursor = next
	}

	activeSessions.Set(float64(total))
	return nil
}

// Track ticket API requests; code 0 means the request never got a response.
func (m *Monitor) TrackAPIRequest(endpoint, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	apiRequests.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
	apiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Monitor) TrackCheckout(outcome string) {
	if m == nil {
		return
	}
	checkoutSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Monitor) TrackDiscount(outcome string) {
	if m == nil {
		return
	}
	discountValidations.WithLabelValues(outcome).Inc()
}

func (m *Monitor) TrackVerification(outcome string) {
	if m == nil {
		return
	}
	paymentVerifications.WithLabelValues(outcome).Inc()
}
