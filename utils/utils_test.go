package utils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-storefront/internal/status"
)

// Circuit Breaker Tests

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("ticket-api")

	assert.Equal(t, "ticket-api", cb.Name())
	assert.Equal(t, uint32(100), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 60*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.state)
}

func TestCircuitBreaker_SettingsOverrideDefaults(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{
		Name:         "custom",
		MaxRequests:  3,
		Timeout:      time.Second,
		FailureRatio: 0.5,
	})

	assert.Equal(t, uint32(3), cb.maxRequests)
	assert.Equal(t, time.Second, cb.timeout)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 0.5, cb.failureRatio)
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(0), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("upstream 502")
	err := cb.Execute(ctx, func() error {
		return expectedError
	})

	assert.Equal(t, expectedError, err)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(0), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
	assert.Equal(t, uint32(1), cb.counts.ConsecutiveFailures)
}

func TestCircuitBreaker_StateTransition_ClosedToOpen(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{Name: "test", MaxRequests: 5, FailureRatio: 0.6})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.NoError(t, cb.Execute(ctx, func() error { return nil }))
	}

	// 3 of 5 requests failing reaches the ratio
	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, func() error { return errors.New("failure") })
	}

	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, status.ErrCircuitOpen)
	assert.Contains(t, err.Error(), "test")
	assert.False(t, called)
}

func TestCircuitBreaker_BelowRatioStaysClosed(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{Name: "test", MaxRequests: 5, FailureRatio: 0.6})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.NoError(t, cb.Execute(ctx, func() error { return nil }))
	}
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func() error { return errors.New("failure") })
	}

	assert.Equal(t, StateClosed, cb.State())
}

func tripBreaker(t *testing.T, cb *CircuitBreaker) {
	t.Helper()
	ctx := context.Background()
	for i := uint32(0); i < cb.maxRequests; i++ {
		_ = cb.Execute(ctx, func() error { return errors.New("failure") })
	}
	require.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_StateTransition_OpenToHalfOpenToClosed(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{
		Name:         "test",
		MaxRequests:  2,
		Timeout:      20 * time.Millisecond,
		FailureRatio: 0.5,
	})
	tripBreaker(t, cb)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.counts.Requests)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{
		Name:         "test",
		MaxRequests:  2,
		Timeout:      20 * time.Millisecond,
		FailureRatio: 0.5,
	})
	tripBreaker(t, cb)

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Execute(context.Background(), func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_GenerationAdvancesOnStateChange(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{Name: "test", MaxRequests: 1, FailureRatio: 0.5})
	before := cb.generation

	_ = cb.Execute(context.Background(), func() error { return errors.New("failure") })

	assert.Equal(t, StateOpen, cb.state)
	assert.Greater(t, cb.generation, before)
}

func TestCircuitBreaker_StaleResultIgnored(t *testing.T) {
	cb := NewCircuitBreakerWithSettings(BreakerSettings{Name: "test", MaxRequests: 1, FailureRatio: 0.5})

	generation, err := cb.beforeRequest()
	require.NoError(t, err)

	cb.mutex.Lock()
	cb.setState(StateOpen, time.Now())
	cb.mutex.Unlock()

	cb.afterRequest(generation, true)
	assert.Equal(t, StateOpen, cb.state)
	assert.Equal(t, uint32(0), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ContextCanceled(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, uint32(0), cb.counts.Requests)
}

func TestCircuitBreaker_PanicCountsAsFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Panics(t, func() {
		_ = cb.Execute(context.Background(), func() error {
			panic("boom")
		})
	})
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	var wg sync.WaitGroup
	numGoroutines := 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = cb.Execute(ctx, func() error {
				if id%2 == 0 {
					return nil
				}
				return errors.New("failure")
			})
		}(i)
	}

	wg.Wait()

	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	assert.Equal(t, uint32(numGoroutines), cb.counts.Requests)
	assert.Equal(t, cb.counts.Requests, cb.counts.TotalSuccesses+cb.counts.TotalFailures)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown state: 9", State(9).String())
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	expectedError := errors.New("connection failed")
	mock.ExpectPing().SetErr(expectedError)

	err := RedisHealthCheck(db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.Contains(t, err.Error(), "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Logger Tests

func TestNewLogger(t *testing.T) {
	dev := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)

	prod := NewLogger("not-a-level", "production")
	assert.Equal(t, logrus.InfoLevel, prod.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
}

// Random Tests

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)

	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Equal(t, strings.ToUpper(code), code)

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

// Benchmark Tests

func BenchmarkCircuitBreaker_Execute_Success(b *testing.B) {
	cb := NewCircuitBreaker("benchmark")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, func() error { return nil })
	}
}
