package paywidget

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessenger loops published messages back to subscribers and lets a
// test play the browser through onPublish.
type fakeMessenger struct {
	mu         sync.Mutex
	published  []Message
	subs       map[string][]chan Message
	onPublish  func(channel string, msg Message)
	publishErr error
	unsubbed   int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{subs: make(map[string][]chan Message)}
}

func (f *fakeMessenger) Publish(_ context.Context, channel string, msg Message) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	f.published = append(f.published, msg)
	hook := f.onPublish
	f.mu.Unlock()

	if hook != nil {
		go hook(channel, msg)
	}
	return nil
}

func (f *fakeMessenger) Subscribe(_ context.Context, channel string) (<-chan Message, func(), error) {
	ch := make(chan Message, 16)
	f.mu.Lock()
	f.subs[channel] = append(f.subs[channel], ch)
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		f.unsubbed++
		f.mu.Unlock()
	}, nil
}

// reply plays a browser message on channel.
func (f *fakeMessenger) reply(channel string, msg Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[channel] {
		ch <- msg
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRequest() Request {
	return Request{
		SessionID:  "sess-1",
		AccessCode: "ac_123",
		Reference:  "ORD-42",
		Amount:     decimal.NewFromInt(350),
		Email:      "ada@example.com",
	}
}

func TestOpen_Success(t *testing.T) {
	m := newFakeMessenger()
	m.onPublish = func(channel string, msg Message) {
		if msg.Type != TypeOpenPayment {
			return
		}
		m.reply(channel, Message{Type: TypePaymentSuccess, Attempt: "someone-else", Reference: "WRONG"})
		m.reply(channel, Message{Type: TypePaymentSuccess, Attempt: msg.Attempt, Reference: "T123"})
	}
	w := NewChannelWidget(m, time.Second, testLogger())

	outcome, err := w.Open(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, Outcome{Reference: "T123"}, outcome)

	require.Len(t, m.published, 1)
	open := m.published[0]
	assert.Equal(t, TypeOpenPayment, open.Type)
	assert.Equal(t, "ac_123", open.AccessCode)
	assert.Equal(t, "350.00", open.Amount)
	assert.Len(t, open.Attempt, 16)
	assert.Equal(t, 1, m.unsubbed)
}

func TestOpen_Cancelled(t *testing.T) {
	m := newFakeMessenger()
	m.onPublish = func(channel string, msg Message) {
		m.reply(channel, Message{Type: TypePaymentCancelled, Attempt: msg.Attempt})
	}
	w := NewChannelWidget(m, time.Second, testLogger())

	outcome, err := w.Open(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
	assert.Empty(t, outcome.Reference)
}

func TestOpen_SuccessWithoutReferenceIsIgnored(t *testing.T) {
	m := newFakeMessenger()
	m.onPublish = func(channel string, msg Message) {
		m.reply(channel, Message{Type: TypePaymentSuccess, Attempt: msg.Attempt})
		m.reply(channel, Message{Type: TypePaymentCancelled, Attempt: msg.Attempt})
	}
	w := NewChannelWidget(m, time.Second, testLogger())

	outcome, err := w.Open(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
}

func TestOpen_Timeout(t *testing.T) {
	m := newFakeMessenger()
	w := NewChannelWidget(m, 20*time.Millisecond, testLogger())

	_, err := w.Open(context.Background(), testRequest())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, m.unsubbed)
}

func TestOpen_PublishError(t *testing.T) {
	m := newFakeMessenger()
	m.publishErr = errors.New("403 forbidden")
	w := NewChannelWidget(m, time.Second, testLogger())

	_, err := w.Open(context.Background(), testRequest())

	assert.ErrorContains(t, err, "403 forbidden")
}

func TestNavigate(t *testing.T) {
	m := newFakeMessenger()
	w := NewChannelWidget(m, time.Second, testLogger())

	require.NoError(t, w.Navigate(context.Background(), "sess-1", "/payment/success"))

	require.Len(t, m.published, 1)
	assert.Equal(t, Message{Type: TypeNavigate, To: "/payment/success"}, m.published[0])
}

func TestDecodeMessage(t *testing.T) {
	msg, err := decodeMessage(map[string]interface{}{
		"type":      "payment_success",
		"attempt":   "ABCD",
		"reference": "T123",
	})

	require.NoError(t, err)
	assert.Equal(t, Message{Type: TypePaymentSuccess, Attempt: "ABCD", Reference: "T123"}, msg)

	_, err = decodeMessage("not an object")
	assert.Error(t, err)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "checkout-abc", Channel("abc"))
}
