package fx

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

// currencyOf returns the registered currency for code, or a generic
// two-decimal entry when the code is unknown. Constructing a zero Money
// value is the way to get a never-nil currency out of go-money.
func currencyOf(code string) *money.Currency {
	return money.New(0, code).Currency()
}

// Format renders amount with the currency's symbol, grouping, and
// decimal precision: zero decimals for currencies without a minor unit
// (JPY, KRW), two for most others.
func Format(amount float64, code string) string {
	cur := currencyOf(code)
	minor := int64(math.Round(amount * math.Pow10(cur.Fraction)))
	return cur.Formatter().Format(minor)
}

// FormatCompact abbreviates amounts of a thousand and up to K/M/B with
// one decimal, keeping the currency's symbol placement. Smaller amounts
// fall back to Format.
func FormatCompact(amount float64, code string) string {
	abs := math.Abs(amount)
	var num string
	switch {
	case abs >= 1e9:
		num = fmt.Sprintf("%.1fB", abs/1e9)
	case abs >= 1e6:
		num = fmt.Sprintf("%.1fM", abs/1e6)
	case abs >= 1e3:
		num = fmt.Sprintf("%.1fK", abs/1e3)
	default:
		return Format(amount, code)
	}

	cur := currencyOf(code)
	out := strings.Replace(cur.Template, "1", num, 1)
	out = strings.Replace(out, "$", cur.Grapheme, 1)
	if amount < 0 {
		out = "-" + out
	}
	return out
}

// FormatSigned renders amount with an explicit leading sign, for change
// and day-gain columns.
func FormatSigned(amount float64, code string) string {
	if amount >= 0 {
		return "+" + Format(amount, code)
	}
	return Format(amount, code)
}

// Percent renders a signed percentage with one decimal, dropping the
// decimal once the magnitude reaches three digits.
func Percent(p float64) string {
	if math.Abs(p) >= 100 {
		return fmt.Sprintf("%+.0f%%", p)
	}
	return fmt.Sprintf("%+.1f%%", p)
}
