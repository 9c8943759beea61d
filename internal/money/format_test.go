package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"1234567.891", "$1,234,567.89"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, USD(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, "1,000,000", Count(1000000))
	assert.Equal(t, "42", Count(int64(42)))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "33.33%", Percent(100.0/3))
	assert.Equal(t, "0.00%", Percent(0))
}
