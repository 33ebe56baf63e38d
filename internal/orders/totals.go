package orders

import "github.com/shopspring/decimal"

// VATRate is the fixed 21% VAT applied to every order.
var VATRate = decimal.New(21, -2)

type Totals struct {
	Total decimal.Decimal
	Tax   decimal.Decimal
	Final decimal.Decimal
}

// ComputeTotals sums the cart lines and applies VAT, rounding each figure to
// two decimals. Example: 2 x 10.00 -> total 20.00, tax 4.20, final 24.20.
func ComputeTotals(lines []CartLine) Totals {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	total = total.Round(2)
	tax := total.Mul(VATRate).Round(2)
	return Totals{Total: total, Tax: tax, Final: total.Add(tax)}
}
