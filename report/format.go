package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatYen 千位分隔的日元金额，有小数时保留两位
func FormatYen(d decimal.Decimal) string {
	s := d.Abs().StringFixed(0)
	if !d.Equal(d.Round(0)) {
		s = d.Abs().StringFixed(2)
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("¥")
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
