package ledger

import (
	"github.com/shopspring/decimal"

	"dailyexpense/internal/core"
)

// chartStartAngle puts the first slice at twelve o'clock.
const chartStartAngle = -90.0

// Slice is one category's share of a pie chart.
type Slice struct {
	Category   core.Category
	Amount     decimal.Decimal
	Fraction   float64 // share of the total in [0, 1]
	Percentage int     // truncated whole percent
	StartAngle float64 // degrees
	SweepAngle float64 // degrees
}

// CategoryShares lays out category sums as consecutive pie slices. A zero
// total yields no slices (the chart is drawn empty).
func CategoryShares(sums []core.CategorySum) []Slice {
	total := decimal.Zero
	for _, s := range sums {
		total = total.Add(s.TotalAmount)
	}
	if !total.IsPositive() {
		return nil
	}

	slices := make([]Slice, 0, len(sums))
	angle := chartStartAngle
	for _, s := range sums {
		frac := s.TotalAmount.Div(total).InexactFloat64()
		sweep := frac * 360
		slices = append(slices, Slice{
			Category:   s.Category,
			Amount:     s.TotalAmount,
			Fraction:   frac,
			Percentage: int(frac * 100),
			StartAngle: angle,
			SweepAngle: sweep,
		})
		angle += sweep
	}
	return slices
}
