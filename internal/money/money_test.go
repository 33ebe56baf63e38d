package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountJSON(t *testing.T) {
	t.Run("trailing zeros are kept", func(t *testing.T) {
		total := decimal.RequireFromString("10.00").Mul(decimal.NewFromInt(3))
		b, err := json.Marshal(map[string]Amount{"total": New(total)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"total":"30.00"}`, string(b))
	})

	t.Run("single decimal pads to two", func(t *testing.T) {
		b, err := json.Marshal(New(decimal.RequireFromString("24.2")))
		require.NoError(t, err)
		assert.Equal(t, `"24.20"`, string(b))
	})

	t.Run("zero renders as 0.00", func(t *testing.T) {
		b, err := json.Marshal(New(decimal.Zero))
		require.NoError(t, err)
		assert.Equal(t, `"0.00"`, string(b))
	})

	t.Run("unmarshal accepts quoted decimals", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &a))
		assert.True(t, a.Equal(decimal.RequireFromString("12.50")))
	})
}
