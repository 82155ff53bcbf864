package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders amount with two decimals, comma thousand separators
// and the given symbol in front.
// Example: 12345.5, "$" -> "$12,345.50"
func FormatCurrency(amount decimal.Decimal, symbol string) string {
	negative := amount.IsNegative()
	formatted := amount.Abs().StringFixed(2)

	// Pisahkan bagian desimal
	parts := strings.SplitN(formatted, ".", 2)
	integerPart := parts[0]
	decimalPart := parts[1]

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	out := symbol + strings.Join(groups, ",") + "." + decimalPart
	if negative {
		return "-" + out
	}
	return out
}
