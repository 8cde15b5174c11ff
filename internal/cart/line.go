package cart

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/catalog"
)

// Line is one product in a cart.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price times quantity, formatted with two decimals. Prices that
// do not parse count as zero.
func (l Line) Subtotal() string {
	return formatAmount(l.amount())
}

func (l Line) amount() decimal.Decimal {
	price, err := decimal.NewFromString(l.Product.Price)
	if err != nil {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary is a cart with its totals.
type Summary struct {
	Lines []Line `json:"lines"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

// NewSummary totals lines.
func NewSummary(lines []Line) Summary {
	total := decimal.Zero
	count := 0
	for _, l := range lines {
		total = total.Add(l.amount())
		count += l.Quantity
	}
	if lines == nil {
		lines = []Line{}
	}
	return Summary{Lines: lines, Count: count, Total: formatAmount(total)}
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
