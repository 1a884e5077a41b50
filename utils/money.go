package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount as a string like "$12.500,00".
// Rounds half away from zero to cents; dot as thousands separator and
// comma as decimal separator (common in Colombia).
func FormatMoney(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac := s, "00"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}

	var b strings.Builder
	// Pre-allocate: digits + separators + sign, $ and cents
	b.Grow(len(intPart) + len(intPart)/3 + 6)
	if neg && !amount.Round(2).IsZero() {
		b.WriteString("-$")
	} else {
		b.WriteString("$")
	}
	groupThousands(&b, intPart)
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// groupThousands writes digits with a dot every three, from the left
func groupThousands(b *strings.Builder, digits string) {
	if len(digits) <= 3 {
		b.WriteString(digits)
		return
	}
	rem := len(digits) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(digits[:rem])
	for i := rem; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
}
