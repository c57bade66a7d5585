package pricing

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Summary holds the cart aggregates derived from recalculated lines.
type Summary struct {
	Subtotal   decimal.Decimal
	ItemsCount int
}

// LineTotal is the charged amount of a line: paid units times the price snapshot.
func LineTotal(line domain.CartLine) decimal.Decimal {
	paid := line.PaidQuantity()
	if paid < 0 {
		paid = 0
	}
	return line.PriceSnapshot.Mul(decimal.NewFromInt(int64(paid)))
}

// Totals sums the charged amount of every line and counts all units, free ones included.
func Totals(lines []domain.CartLine) Summary {
	sum := Summary{Subtotal: decimal.Zero}
	for _, line := range lines {
		sum.Subtotal = sum.Subtotal.Add(LineTotal(line))
		sum.ItemsCount += line.Quantity
	}
	sum.Subtotal = RoundMoney(sum.Subtotal)
	return sum
}
