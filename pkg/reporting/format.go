package reporting

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money renders an amount rounded to whole won with thousands separators.
func Money(v float64) string {
	s := decimal.NewFromFloat(v).Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Percent renders a fraction as a percentage with two decimals.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// Price renders a close with up to two decimals, dropping a zero fraction.
func Price(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.Equal(d.Truncate(0)) {
		return Money(v)
	}
	return d.StringFixed(2)
}

// Ratio renders a dimensionless statistic.
func Ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}
