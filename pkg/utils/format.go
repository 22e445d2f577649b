// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD formats an amount as dollars with thousands separators.
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a fraction (0.05 = 5%) as a signed percentage.
func FormatPercent(fraction float64) string {
	value := fraction * 100
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats P&L with an explicit sign.
func FormatPnL(pnl float64) string {
	formatted := FormatUSD(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatShares formats a share count with commas.
func FormatShares(qty int) string {
	s := groupThousands(fmt.Sprintf("%d", abs(qty)))
	if qty < 0 {
		return "-" + s
	}
	return s
}

// FormatRatio formats a dimensionless ratio such as Sharpe or beta.
func FormatRatio(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", value)
}

// FormatCompact formats a number in compact form (K/M/B).
func FormatCompact(amount float64) string {
	absAmount := math.Abs(amount)

	switch {
	case absAmount >= 1e9:
		return fmt.Sprintf("$%.2fB", amount/1e9)
	case absAmount >= 1e6:
		return fmt.Sprintf("$%.2fM", amount/1e6)
	case absAmount >= 1e4:
		return fmt.Sprintf("$%.1fK", amount/1e3)
	}
	return FormatUSD(amount)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
