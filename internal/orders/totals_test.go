package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals(t *testing.T) {
	t.Run("two units at 10.00 carry 21% VAT", func(t *testing.T) {
		got := ComputeTotals([]CartLine{{ProductID: "p1", Quantity: 2, UnitPrice: d("10.00")}})
		assert.True(t, got.Total.Equal(d("20.00")), "total = %s", got.Total)
		assert.True(t, got.Tax.Equal(d("4.20")), "tax = %s", got.Tax)
		assert.True(t, got.Final.Equal(d("24.20")), "final = %s", got.Final)
	})

	t.Run("multiple lines sum before tax", func(t *testing.T) {
		got := ComputeTotals([]CartLine{
			{ProductID: "p1", Quantity: 1, UnitPrice: d("19.99")},
			{ProductID: "p2", Quantity: 3, UnitPrice: d("5.50")},
		})
		assert.True(t, got.Total.Equal(d("36.49")))
		assert.True(t, got.Tax.Equal(d("7.66")), "tax rounds half up: %s", got.Tax)
		assert.True(t, got.Final.Equal(d("44.15")))
	})

	t.Run("empty cart totals zero", func(t *testing.T) {
		got := ComputeTotals(nil)
		assert.True(t, got.Final.IsZero())
	})
}
