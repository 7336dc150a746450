package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ticket-storefront/internal/status"
	"ticket-storefront/models"
)

const keyPrefix = "checkout:"

// Hash fields. cart, eventId and orderReference keep the names the browser
// flow has always used.
const (
	fieldCart           = "cart"
	fieldEventID        = "eventId"
	fieldOrderReference = "orderReference"
	fieldDiscount       = "discount"
	fieldState          = "state"
	fieldNotice         = "notice"
	fieldRedirectTo     = "redirect_to"
	fieldCreatedAt      = "created_at"
)

func Key(id string) string {
	return keyPrefix + id
}

// RedisStore keeps one hash per session and refreshes its TTL on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Checkout, error) {
	fields, err := s.client.HGetAll(ctx, Key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, status.ErrSessionNotFound
	}

	c := &Checkout{
		ID:             id,
		Cart:           []models.CartItem{},
		OrderReference: fields[fieldOrderReference],
		State:          State(fields[fieldState]),
		Notice:         fields[fieldNotice],
		RedirectTo:     fields[fieldRedirectTo],
	}
	if c.State == "" {
		c.State = StateEditing
	}

	if v := fields[fieldEventID]; v != "" {
		if c.EventID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("decode session %s eventId: %w", id, err)
		}
	}
	if v := fields[fieldCart]; v != "" {
		if err := json.Unmarshal([]byte(v), &c.Cart); err != nil {
			return nil, fmt.Errorf("decode session %s cart: %w", id, err)
		}
	}
	if v := fields[fieldDiscount]; v != "" {
		var d models.AppliedDiscount
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			return nil, fmt.Errorf("decode session %s discount: %w", id, err)
		}
		c.Discount = &d
	}
	if v := fields[fieldCreatedAt]; v != "" {
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}

	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Checkout) error {
	pairs, err := encode(c)
	if err != nil {
		return err
	}

	key := Key(c.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, pairs...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", c.ID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", id, err)
	}
	return nil
}

// encode returns field/value pairs in a fixed order.
func encode(c *Checkout) ([]any, error) {
	cart := c.Cart
	if cart == nil {
		cart = []models.CartItem{}
	}
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("encode session cart: %w", err)
	}

	discount := ""
	if c.Discount != nil {
		b, err := json.Marshal(c.Discount)
		if err != nil {
			return nil, fmt.Errorf("encode session discount: %w", err)
		}
		discount = string(b)
	}

	eventID := ""
	if c.EventID != 0 {
		eventID = strconv.FormatInt(c.EventID, 10)
	}

	return []any{
		fieldCart, string(cartJSON),
		fieldEventID, eventID,
		fieldOrderReference, c.OrderReference,
		fieldDiscount, discount,
		fieldState, string(c.State),
		fieldNotice, c.Notice,
		fieldRedirectTo, c.RedirectTo,
		fieldCreatedAt, c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}
