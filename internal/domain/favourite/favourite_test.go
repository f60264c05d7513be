package favourite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
)

func TestDiscountTier(t *testing.T) {
	tests := []struct {
		purchases int
		want      int
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{27, 5},
		{49, 9},
		{50, 10},
		{500, 10},
		{-3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DiscountTier(tt.purchases), "purchases=%d", tt.purchases)
	}
}

func TestDiscountTier_Monotone(t *testing.T) {
	prev := 0
	for n := 0; n <= 120; n++ {
		tier := DiscountTier(n)
		assert.GreaterOrEqual(t, tier, prev, "n=%d", n)
		assert.LessOrEqual(t, tier, 10, "n=%d", n)
		prev = tier
	}
}

func TestMatches(t *testing.T) {
	fav := &Favourite{Items: []cart.LineItem{
		{ItemID: "p1", Quantity: 2},
		{ItemID: "p2", Quantity: 1},
	}}

	assert.True(t, fav.Matches([]cart.LineItem{
		{ItemID: "p2", Quantity: 1},
		{ItemID: "p1", Quantity: 2},
	}), "order independent")

	assert.False(t, fav.Matches([]cart.LineItem{
		{ItemID: "p1", Quantity: 2},
	}), "missing line")

	assert.False(t, fav.Matches([]cart.LineItem{
		{ItemID: "p1", Quantity: 2},
		{ItemID: "p2", Quantity: 3},
	}), "quantity mismatch")

	empty := &Favourite{}
	assert.False(t, empty.Matches(nil), "empty favourite never matches")
}
