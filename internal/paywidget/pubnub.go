package paywidget

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	pubnub "github.com/pubnub/go"
	"github.com/sirupsen/logrus"
)

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UUID         string
}

type PubNubMessenger struct {
	pn     *pubnub.PubNub
	logger *logrus.Logger
}

func NewPubNubMessenger(cfg PubNubConfig, logger *logrus.Logger) *PubNubMessenger {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.SecretKey = cfg.SecretKey
	pnConfig.UUID = cfg.UUID

	return &PubNubMessenger{pn: pubnub.NewPubNub(pnConfig), logger: logger}
}

func (m *PubNubMessenger) Publish(_ context.Context, channel string, msg Message) error {
	_, _, err := m.pn.Publish().
		Channel(channel).
		Message(msg).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns once the SDK reports the channel connected, so a publish
// that follows cannot race ahead of the subscription.
func (m *PubNubMessenger) Subscribe(ctx context.Context, channel string) (<-chan Message, func(), error) {
	listener := pubnub.NewListener()
	m.pn.AddListener(listener)
	m.pn.Subscribe().
		Channels([]string{channel}).
		Execute()

	out := make(chan Message)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			m.pn.Unsubscribe().
				Channels([]string{channel}).
				Execute()
			m.pn.RemoveListener(listener)
		})
	}

	if err := awaitConnected(ctx, listener.Status, channel); err != nil {
		cancel()
		return nil, nil, err
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-listener.Status:
			case <-listener.Presence:
			case pm := <-listener.Message:
				if pm == nil || pm.Channel != channel {
					continue
				}
				msg, err := decodeMessage(pm.Message)
				if err != nil {
					m.logger.WithContext(ctx).WithError(err).WithField("channel", channel).Warn("dropping malformed widget message")
					continue
				}
				select {
				case out <- msg:
				case <-done:
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

// awaitConnected blocks until a connected status covering channel arrives.
// Access and request errors end the wait early.
func awaitConnected(ctx context.Context, statuses <-chan *pubnub.PNStatus, channel string) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("pubnub subscribe to %s: %w", channel, ctx.Err())
		case st := <-statuses:
			if st == nil {
				continue
			}
			switch st.Category {
			case pubnub.PNConnectedCategory:
				if len(st.AffectedChannels) == 0 || slices.Contains(st.AffectedChannels, channel) {
					return nil
				}
			case pubnub.PNAccessDeniedCategory, pubnub.PNBadRequestCategory:
				if st.ErrorData != nil {
					return fmt.Errorf("pubnub subscribe to %s: %w", channel, st.ErrorData)
				}
				return fmt.Errorf("pubnub subscribe to %s: status %d", channel, st.StatusCode)
			}
		}
	}
}

// decodeMessage converts the SDK's decoded JSON payload back into a Message.
func decodeMessage(payload interface{}) (Message, error) {
	var msg Message
	data, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
