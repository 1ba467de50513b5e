package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"decisiondash/internal/models"
)

// BudgetBand classifies how much of a budget has been used
type BudgetBand string

const (
	BudgetNormal  BudgetBand = "normal"
	BudgetWarning BudgetBand = "warning"
	BudgetOver    BudgetBand = "over"
)

const (
	warningThreshold = 80.0
	overThreshold    = 100.0
)

// Utilization is a budget line with its usage computed
type Utilization struct {
	Category string
	Budget   decimal.Decimal
	Actual   decimal.Decimal

	// Percent is actual/budget*100, unclamped. A zero budget gives +Inf
	// for positive spending and NaN when nothing was spent.
	Percent      float64
	IsOverBudget bool
	// Fill is the progress bar width in percent, within [0, 100]
	Fill float64
	Band BudgetBand

	RemainingAbs   decimal.Decimal
	RemainingLabel string
}

// BudgetUtilization computes usage for one line. Remaining is taken from the server as given.
func BudgetUtilization(line models.BudgetLine) Utilization {
	actual := line.Actual.InexactFloat64()
	budget := line.Budget.InexactFloat64()
	pct := actual / budget * 100

	over := pct > overThreshold
	label := "remaining"
	if over {
		label = "over"
	}

	return Utilization{
		Category:       line.Category,
		Budget:         line.Budget,
		Actual:         line.Actual,
		Percent:        pct,
		IsOverBudget:   over,
		Fill:           clampFill(pct),
		Band:           budgetBand(pct),
		RemainingAbs:   line.Remaining.Abs(),
		RemainingLabel: label,
	}
}

func budgetBand(pct float64) BudgetBand {
	switch {
	case pct > overThreshold:
		return BudgetOver
	case pct > warningThreshold:
		return BudgetWarning
	default:
		return BudgetNormal
	}
}

func clampFill(pct float64) float64 {
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	return math.Min(pct, 100)
}
