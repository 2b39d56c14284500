package utils

import (
	"github.com/shopspring/decimal"
)

// Money amounts settle at two fractional digits on the boundary; internal
// columns keep four to avoid drift across intermediate calculations.
const MoneyScale = 2

// RoundMoney rounds per the configured rounding mode.
// "half-up" is the default; "bankers" rounds half to even; "down" truncates.
func RoundMoney(d decimal.Decimal, mode string) decimal.Decimal {
	switch mode {
	case "bankers":
		return d.RoundBank(MoneyScale)
	case "down":
		return d.Truncate(MoneyScale)
	default:
		return d.Round(MoneyScale)
	}
}

// WithinEpsilon reports whether |a-b| < epsilon.
func WithinEpsilon(a, b, epsilon decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(epsilon)
}

// SplitEvenly divides total into count parts rounded to money scale,
// the last part absorbing the rounding remainder.
func SplitEvenly(total decimal.Decimal, count int) []decimal.Decimal {
	if count <= 0 {
		return nil
	}
	each := total.Div(decimal.NewFromInt(int64(count))).Round(MoneyScale)
	parts := make([]decimal.Decimal, count)
	running := decimal.Zero
	for i := 0; i < count-1; i++ {
		parts[i] = each
		running = running.Add(each)
	}
	parts[count-1] = total.Sub(running)
	return parts
}
