package presenter

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisiondash/internal/models"
	"decisiondash/internal/services/metrics"
	"decisiondash/internal/services/period"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDates(t *testing.T) {
	assert.Equal(t, "Mar 05", AxisDate("2024-03-05"))
	assert.Equal(t, "Mar 05, 2024", RowDate("2024-03-05"))
	assert.Equal(t, "Dec 31, 2023", RowDate("2023-12-31T23:00:00Z"))
	assert.Equal(t, "soon", AxisDate("soon"))
}

func TestMoneyRoundsForDisplayOnly(t *testing.T) {
	amount := dec("1234.5678")
	assert.Equal(t, "$1,234.57", Money(amount))
	assert.Equal(t, "1234.5678", amount.String())

	assert.Equal(t, "-$50.00", Money(dec("-50")))
	assert.Equal(t, "$0.00", Money(dec("-0.001")))
	assert.Equal(t, "$1,000,000.10", Money(dec("1000000.1")))

	assert.Equal(t, "+$10.00", SignedMoney(dec("10"), true))
	assert.Equal(t, "-$10.00", SignedMoney(dec("-10"), false))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "120.0%", Percent(120))
	assert.Equal(t, "n/a", Percent(math.Inf(1)))
	assert.Equal(t, "n/a", Percent(math.NaN()))
}

func TestColorAtCycles(t *testing.T) {
	assert.Equal(t, "#3b82f6", ColorAt(0))
	assert.Equal(t, "#f97316", ColorAt(7))
	assert.Equal(t, ColorAt(0), ColorAt(8))
	assert.Equal(t, ColorAt(3), ColorAt(11))
}

func TestSpendingChartColorsByPosition(t *testing.T) {
	shares := make([]metrics.CategoryShare, 10)
	for i := range shares {
		shares[i] = metrics.CategoryShare{Category: string(rune('A' + i)), Total: decimal.NewFromInt(int64(i))}
	}

	chart := SpendingChart(shares)
	require.Len(t, chart.Data, 1)
	colors, ok := chart.Data[0].Marker.Color.([]string)
	require.True(t, ok)
	assert.Equal(t, Palette[0], colors[8])
	assert.Equal(t, Palette[1], colors[9])
}

func TestRevenueChart(t *testing.T) {
	chart := RevenueChart([]models.RevenuePoint{
		{Date: "2024-01-02", Income: dec("10.5"), Expense: dec("3"), Net: dec("7.5")},
	})
	require.Len(t, chart.Data, 3)
	assert.Equal(t, []string{"Jan 02"}, chart.Data[0].X)
	assert.Equal(t, []float64{10.5}, chart.Data[0].Y)
	assert.Equal(t, IncomeColor, chart.Data[0].Line.Color)
	assert.Equal(t, "lines+markers", chart.Data[2].Mode)
}

func TestBudgetRows(t *testing.T) {
	rows := BudgetRows([]metrics.Utilization{
		metrics.BudgetUtilization(models.BudgetLine{Category: "Food", Budget: dec("100"), Actual: dec("120"), Remaining: dec("-20")}),
		metrics.BudgetUtilization(models.BudgetLine{Category: "Rent", Budget: dec("1000"), Actual: dec("900"), Remaining: dec("100")}),
		metrics.BudgetUtilization(models.BudgetLine{Category: "Fun", Budget: dec("200"), Actual: dec("50"), Remaining: dec("150")}),
	})
	require.Len(t, rows, 3)

	assert.Equal(t, "$120.00 / $100.00", rows[0].Spent)
	assert.Equal(t, "120.0% used", rows[0].Used)
	assert.Equal(t, 100.0, rows[0].Fill)
	assert.Equal(t, "$20.00 over", rows[0].Remaining)
	assert.Equal(t, "bg-red-500", rows[0].BarClass)

	assert.Equal(t, "bg-yellow-500", rows[1].BarClass)
	assert.Equal(t, "$100.00 remaining", rows[1].Remaining)

	assert.Equal(t, "bg-green-500", rows[2].BarClass)
	assert.Equal(t, "25.0% used", rows[2].Used)
}

func TestDashboardKeepsSectionFailures(t *testing.T) {
	trend := 4.2
	vm := &models.ViewModel{
		Period:             models.PeriodWeek,
		Metrics:            models.Loaded(models.Metrics{Income: dec("5000"), NetCashFlow: dec("-10"), SavingsRate: dec("12.5"), ActiveSubscriptions: 3, IncomeTrend: &trend}),
		RevenueTrends:      models.Unavailable[[]models.RevenuePoint](errors.New("down")),
		SpendingByCategory: models.Loaded([]models.CategorySpend{}),
		BudgetVsActual:     models.Loaded([]models.BudgetLine{}),
		RecentTransactions: models.Loaded([]models.Transaction{{Category: "Food", Date: "2024-02-01", Amount: dec("12"), Type: models.Expense}}),
		LoadedAt:           time.Now(),
	}

	view := Dashboard(metrics.New().Derive(vm), period.NewSelector(models.PeriodWeek).Options())

	require.True(t, view.Cards.OK())
	cards := view.Cards.Data
	assert.Equal(t, "$5,000.00", cards[0].Value)
	require.NotNil(t, cards[0].Trend)
	assert.Equal(t, "↑ 4.2%", cards[0].Trend.String())
	assert.Nil(t, cards[1].Trend)
	assert.Equal(t, "red", cards[2].Color)
	assert.Equal(t, "12.5% savings rate", cards[2].Subtitle)
	assert.Equal(t, "3 subscriptions", cards[3].Subtitle)

	assert.False(t, view.Revenue.OK())
	assert.True(t, view.Spending.OK())
	assert.True(t, view.Spending.Data.Empty)

	require.True(t, view.Activity.OK())
	row := view.Activity.Data[0]
	assert.Equal(t, "Food", row.Title)
	assert.Equal(t, "🍔", row.Icon)
	assert.Equal(t, "-$12.00", row.Amount)
	assert.Equal(t, "Feb 01, 2024", row.Date)
}

func TestReportView(t *testing.T) {
	v := Report(&models.Report{
		RiskScore: 79,
		Warnings:  []models.Finding{{RuleName: "Concentration", ClientName: "Acme", Explanation: "60% of revenue"}},
		Metrics:   &models.ReportMetrics{TotalTransactions: 4, TotalAmount: dec("1000"), AvgTransactionAmount: dec("250")},
	})

	assert.Equal(t, "79", v.Score)
	assert.Equal(t, "Medium Risk", v.Label)
	assert.Equal(t, "text-yellow-600 bg-yellow-100", v.RiskClass)
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, "Acme", v.Warnings[0].Client)
	assert.Empty(t, v.Opportunities)
	assert.True(t, v.HasMetrics)
	assert.Equal(t, "$250.00", v.AverageAmount)
	assert.Empty(t, v.GeneratedAt)
}
