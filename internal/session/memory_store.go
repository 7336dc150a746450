package session

import (
	"context"
	"sync"
	"time"

	"ticket-storefront/internal/status"
	"ticket-storefront/models"
)

// MemoryStore is a single-process Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	checkout  Checkout
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, status.ErrSessionNotFound
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, status.ErrSessionNotFound
	}

	c := copyCheckout(entry.checkout)
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, c *Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[c.ID] = memoryEntry{
		checkout:  copyCheckout(*c),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func copyCheckout(c Checkout) Checkout {
	c.Cart = append([]models.CartItem{}, c.Cart...)
	if c.Discount != nil {
		d := *c.Discount
		c.Discount = &d
	}
	return c
}
