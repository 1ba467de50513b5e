// Package presenter projects derived dashboard data onto the shapes the
// pages, charts and terminal views render.
package presenter

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"decisiondash/internal/models"
)

// Palette colors category series by position, cycling when exhausted
var Palette = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444",
	"#8b5cf6", "#ec4899", "#14b8a6", "#f97316",
}

// Revenue series colors
const (
	IncomeColor  = "#10b981"
	ExpenseColor = "#ef4444"
	NetColor     = "#6366f1"
)

// ColorAt returns the palette color for the i-th series
func ColorAt(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// AxisDate formats an ISO date for chart axes, e.g. "Mar 05".
// Unparseable input is returned unchanged.
func AxisDate(iso string) string {
	t, err := models.ParseISODate(iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 02")
}

// RowDate formats an ISO date for list rows, e.g. "Mar 05, 2024"
func RowDate(iso string) string {
	t, err := models.ParseISODate(iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 02, 2006")
}

// Money renders an amount rounded to cents with thousands separators, e.g. "-$1,234.50"
func Money(d decimal.Decimal) string {
	s := groupThousands(d.Abs().StringFixed(2))
	if d.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// SignedMoney renders the magnitude of amount with an explicit direction sign
func SignedMoney(amount decimal.Decimal, income bool) string {
	sign := "-"
	if income {
		sign = "+"
	}
	return sign + "$" + groupThousands(amount.Abs().StringFixed(2))
}

// Percent renders a percentage with one decimal, e.g. "120.0%"
func Percent(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func groupThousands(fixed string) string {
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
