package money

import "github.com/shopspring/decimal"

// Amount is a decimal that always renders with exactly two decimal places in
// JSON. decimal.Decimal's own MarshalJSON trims trailing zeros (30.00 ->
// "30"), which is wrong for money at the API surface.
type Amount struct {
	decimal.Decimal
}

func New(d decimal.Decimal) Amount { return Amount{d} }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(2) + `"`), nil
}
