package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/petcarevet/clinic/internal/models"
)

// Line is one product entry priced at the live catalog price at
// computation time.
type Line struct {
	ProductID uint
	Quantity  uint
	UnitPrice float64
}

type Result struct {
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	FinalTotal float64 `json:"final_total"`
}

var hundred = decimal.NewFromInt(100)

// ComputeTotals prices a cart with an optional coupon. All arithmetic is
// decimal with two-place rounding. A fixed discount is clamped to the
// subtotal so the final total never goes negative.
func ComputeTotals(lines []Line, coupon *models.Coupon) Result {
	subtotal := decimal.Zero
	for _, l := range lines {
		unit := decimal.NewFromFloat(l.UnitPrice)
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(unit.Mul(qty))
	}
	subtotal = subtotal.Round(2)

	discount := decimal.Zero
	if coupon != nil {
		value := decimal.NewFromFloat(coupon.DiscountValue)
		switch coupon.DiscountType {
		case models.DiscountPercentage:
			discount = subtotal.Mul(value).Div(hundred).Round(2)
		case models.DiscountFixed:
			discount = value.Round(2)
			if discount.GreaterThan(subtotal) {
				discount = subtotal
			}
		}
	}

	final := subtotal.Sub(discount)

	return Result{
		Subtotal:   subtotal.InexactFloat64(),
		Discount:   discount.InexactFloat64(),
		FinalTotal: final.InexactFloat64(),
	}
}
