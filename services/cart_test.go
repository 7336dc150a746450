package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-storefront/internal/status"
	"ticket-storefront/models"
)

func TestCart_SubtotalAndTotalScenario(t *testing.T) {
	cart := NewCart(nil)
	cart.Set(vipType(), 2)
	cart.Set(generalType(), 1)
	catalog := NewCatalog([]models.TicketType{vipType(), generalType()})

	subtotal := cart.Subtotal(catalog)
	assert.True(t, dec("400").Equal(subtotal), subtotal.String())
	assert.True(t, dec("400").Equal(cart.SnapshotSubtotal()))

	assert.True(t, dec("350").Equal(Total(subtotal, &models.AppliedDiscount{Code: "X", Amount: dec("50")})))
	assert.True(t, dec("400").Equal(Total(subtotal, nil)))
}

func TestCart_SubtotalIsPriceTimesQuantity(t *testing.T) {
	tt := vipType()
	catalog := NewCatalog([]models.TicketType{tt})

	for q := 0; q <= tt.PurchaseLimit(); q++ {
		cart := NewCart(nil)
		cart.Set(tt, q)
		want := tt.Price.Mul(decimal.NewFromInt(int64(q)))
		assert.True(t, want.Equal(cart.Subtotal(catalog)), "q=%d", q)
	}
}

func TestTotal_NeverNegative(t *testing.T) {
	total := Total(dec("40"), &models.AppliedDiscount{Amount: dec("55.50")})
	assert.True(t, total.IsZero())
}

func TestCart_Change_Clamps(t *testing.T) {
	tests := []struct {
		name    string
		tt      models.TicketType
		start   int
		delta   int
		want    int
		present bool
	}{
		{"increment", vipType(), 1, 1, 2, true},
		{"capped by max_purchase", vipType(), 4, 1, 4, true},
		{"big jump capped by max_purchase", vipType(), 1, 10, 4, true},
		{"capped by remaining", func() models.TicketType {
			tt := vipType()
			tt.QuantitySold = 97
			return tt
		}(), 3, 1, 3, true},
		{"decrement to zero removes", vipType(), 1, -1, 0, false},
		{"below zero removes", vipType(), 2, -5, 0, false},
		{"sold out never added", func() models.TicketType {
			tt := vipType()
			tt.QuantitySold = tt.QuantityAvailable
			return tt
		}(), 0, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart(nil)
			if tt.start > 0 {
				require.Equal(t, tt.start, cart.Set(tt.tt, tt.start))
			}

			got := cart.Change(tt.tt, tt.delta)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, cart.Quantity(tt.tt.ID))
			assert.Equal(t, tt.present, len(cart.Items()) == 1)
			for _, item := range cart.Items() {
				assert.Positive(t, item.Quantity)
			}
		})
	}
}

func TestCart_KeepsSelectionOrder(t *testing.T) {
	cart := NewCart(nil)
	cart.Change(generalType(), 1)
	cart.Change(vipType(), 1)
	cart.Change(generalType(), 1)

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].TicketTypeID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "VIP", items[1].Name)
	assert.Equal(t, 3, cart.TotalTickets())
}

func TestNewCart_DropsZeroLines(t *testing.T) {
	cart := NewCart([]models.CartItem{
		{TicketTypeID: 1, Quantity: 0},
		{TicketTypeID: 2, Quantity: 3},
	})

	assert.Len(t, cart.Items(), 1)
	assert.False(t, cart.IsEmpty())
}

func TestCart_SubtotalIgnoresUnknownIDs(t *testing.T) {
	cart := NewCart([]models.CartItem{
		{TicketTypeID: 1, Name: "VIP", Price: dec("150"), Quantity: 1},
		{TicketTypeID: 99, Name: "Gone", Price: dec("1000"), Quantity: 1},
	})

	subtotal := cart.Subtotal(NewCatalog([]models.TicketType{vipType()}))

	assert.True(t, dec("150").Equal(subtotal))
}

func TestCart_Validate(t *testing.T) {
	minTwo := vipType()
	minTwo.MinPurchase = 2
	inactive := vipType()
	inactive.IsActive = false
	shrunk := vipType()
	shrunk.QuantitySold = 99

	tests := []struct {
		name    string
		catalog []models.TicketType
		qty     int
		wantErr error
	}{
		{"ok", []models.TicketType{vipType()}, 2, nil},
		{"unknown", nil, 1, status.ErrUnknownTicketType},
		{"inactive", []models.TicketType{inactive}, 1, status.ErrTicketUnavailable},
		{"below min", []models.TicketType{minTwo}, 1, status.ErrBelowMinPurchase},
		{"stock shrank", []models.TicketType{shrunk}, 3, status.ErrOverPurchaseLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart([]models.CartItem{{TicketTypeID: 1, Name: "VIP", Price: dec("150"), Quantity: tt.qty}})

			err := cart.Validate(NewCatalog(tt.catalog))

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotEmpty(t, UserMessage(err))
		})
	}
}

func TestCart_OrderLines(t *testing.T) {
	cart := NewCart(nil)
	cart.Set(vipType(), 2)
	cart.Set(generalType(), 1)

	assert.Equal(t, []models.OrderLine{
		{TicketTypeID: 1, Quantity: 2},
		{TicketTypeID: 2, Quantity: 1},
	}, cart.OrderLines())
}
