package usecase

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingService_ExpectedAmount(t *testing.T) {
	pricing := NewPricingService()

	tests := []struct {
		months int
		price  string
	}{
		{1, "9.99"},
		{3, "27.99"},
		{6, "53.99"},
		{12, "99.99"},
	}

	for _, tt := range tests {
		amount, ok := pricing.ExpectedAmount(tt.months)
		require.True(t, ok, "duration %d should be offered", tt.months)
		assert.True(t, amount.Equal(decimal.RequireFromString(tt.price)),
			"duration %d: expected %s, got %s", tt.months, tt.price, amount)
	}
}

func TestPricingService_UnknownDuration(t *testing.T) {
	pricing := NewPricingService()

	for _, months := range []int{0, 2, 4, 24, -1} {
		amount, ok := pricing.ExpectedAmount(months)
		assert.False(t, ok, "duration %d should not be offered", months)
		assert.True(t, amount.IsZero())
	}
}

func TestPricingService_AllowedDurations(t *testing.T) {
	pricing := NewPricingService()
	assert.Equal(t, []int{1, 3, 6, 12}, pricing.AllowedDurations())
	assert.Equal(t, "USD", pricing.Currency())
}
