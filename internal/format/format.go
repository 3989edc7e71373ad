package format

import (
	"fmt"
	"math"
	"strings"
)

// FmtUSDCompact renders whole dollars with a K, M or B suffix.
// Example: FmtUSDCompact(12_500_000) => "$12.5M"
func FmtUSDCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= 1e9:
		return sign + "$" + trimZero(amount/1e9) + "B"
	case amount >= 1e6:
		return sign + "$" + trimZero(amount/1e6) + "M"
	case amount >= 1e3:
		return sign + "$" + trimZero(amount/1e3) + "K"
	default:
		return sign + "$" + thousandSep(int64(math.Round(amount)))
	}
}

// FmtPercent renders a ratio given in percent units, e.g. 6.25 => "6.25%".
func FmtPercent(v float64) string {
	return trimZero2(v) + "%"
}

// FmtMultiple renders a coverage or valuation multiple, e.g. 1.3 => "1.30x".
func FmtMultiple(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

func trimZero(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

func trimZero2(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func thousandSep(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
