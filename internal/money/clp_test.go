package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCLP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"150000", "$150.000"},
		{"2500000.40", "$2.500.000"},
		{"-125000", "-$125.000"},
		{"0", "$0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCLP(decimal.RequireFromString(tt.in)))
		})
	}
}
