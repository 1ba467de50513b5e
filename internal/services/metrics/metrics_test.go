package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisiondash/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetUtilizationOverBudget(t *testing.T) {
	u := BudgetUtilization(models.BudgetLine{
		Category:  "Food",
		Budget:    dec("100"),
		Actual:    dec("120"),
		Remaining: dec("-20"),
	})

	assert.Equal(t, 120.0, u.Percent)
	assert.True(t, u.IsOverBudget)
	assert.Equal(t, 100.0, u.Fill)
	assert.Equal(t, BudgetOver, u.Band)
	assert.True(t, u.RemainingAbs.Equal(dec("20")))
	assert.Equal(t, "over", u.RemainingLabel)
}

func TestBudgetBands(t *testing.T) {
	tests := []struct {
		actual string
		band   BudgetBand
		over   bool
		fill   float64
	}{
		{"0", BudgetNormal, false, 0},
		{"80", BudgetNormal, false, 80},
		{"80.5", BudgetWarning, false, 80.5},
		{"100", BudgetWarning, false, 100},
		{"100.01", BudgetOver, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.actual, func(t *testing.T) {
			u := BudgetUtilization(models.BudgetLine{Budget: dec("100"), Actual: dec(tt.actual), Remaining: dec("100").Sub(dec(tt.actual))})
			assert.Equal(t, tt.band, u.Band)
			assert.Equal(t, tt.over, u.IsOverBudget)
			assert.InDelta(t, tt.fill, u.Fill, 1e-9)
			if !tt.over {
				assert.Equal(t, "remaining", u.RemainingLabel)
			}
		})
	}
}

func TestBudgetUtilizationZeroBudget(t *testing.T) {
	u := BudgetUtilization(models.BudgetLine{Budget: decimal.Zero, Actual: dec("5")})
	assert.True(t, math.IsInf(u.Percent, 1))
	assert.True(t, u.IsOverBudget)
	assert.Equal(t, 100.0, u.Fill)

	u = BudgetUtilization(models.BudgetLine{Budget: decimal.Zero, Actual: decimal.Zero})
	assert.True(t, math.IsNaN(u.Percent))
	assert.False(t, u.IsOverBudget)
	assert.Equal(t, 0.0, u.Fill)
	assert.Equal(t, BudgetNormal, u.Band)
}

func TestRiskSeverityBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		label string
		band  models.SeverityBand
	}{
		{100, "High Risk", models.BandCritical},
		{80, "High Risk", models.BandCritical},
		{79, "Medium Risk", models.BandAttention},
		{79.99, "Medium Risk", models.BandAttention},
		{50, "Medium Risk", models.BandAttention},
		{49, "Low Risk", models.BandHealthy},
		{0, "Low Risk", models.BandHealthy},
	}

	for _, tt := range tests {
		r := RiskSeverity(tt.score)
		assert.Equal(t, tt.label, r.Label, "score %v", tt.score)
		assert.Equal(t, tt.band, r.Band, "score %v", tt.score)
		assert.False(t, r.FromServer)
	}
}

func TestReportSeverityPrefersServerBand(t *testing.T) {
	r := ReportSeverity(&models.Report{RiskScore: 85, SeverityBand: models.BandAttention, SeverityLabel: "Needs attention"})
	assert.Equal(t, models.BandAttention, r.Band)
	assert.Equal(t, "Needs attention", r.Label)
	assert.True(t, r.FromServer)

	r = ReportSeverity(&models.Report{RiskScore: 20, SeverityBand: models.BandCritical})
	assert.Equal(t, "High Risk", r.Label)

	r = ReportSeverity(&models.Report{RiskScore: 55})
	assert.Equal(t, models.BandAttention, r.Band)
	assert.False(t, r.FromServer)

	r = ReportSeverity(&models.Report{RiskScore: 90, SeverityBand: "unknown"})
	assert.Equal(t, models.BandCritical, r.Band)
}

func TestTrend(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.Nil(t, Trend(nil))
	assert.Nil(t, Trend(f(0)))

	up := Trend(f(12.5))
	require.NotNil(t, up)
	assert.Equal(t, "↑ 12.5%", up.String())

	down := Trend(f(-3))
	require.NotNil(t, down)
	assert.False(t, down.Up)
	assert.Equal(t, "↓ 3%", down.String())
}

func TestCategoryIconIsTotal(t *testing.T) {
	assert.Equal(t, "🍔", CategoryIcon("Food"))
	assert.Equal(t, "🍔", CategoryIcon("FOOD"))
	assert.Equal(t, "📈", CategoryIcon("investment"))
	assert.Equal(t, FallbackIcon, CategoryIcon("xyz"))
	assert.Equal(t, FallbackIcon, CategoryIcon(""))
}

func TestPercentChange(t *testing.T) {
	s := New()
	assert.Equal(t, 0.0, s.PercentChange(0, 0))
	assert.Equal(t, 100.0, s.PercentChange(50, 0))
	assert.Equal(t, 50.0, s.PercentChange(150, 100))
	assert.Equal(t, 50.0, s.PercentChange(-50, -100))
}

func TestDeriveCarriesAbsentSections(t *testing.T) {
	boom := errors.New("boom")
	vm := &models.ViewModel{
		Period:   models.PeriodMonth,
		LoadedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Metrics:  models.Loaded(models.Metrics{Income: dec("1000"), NetCashFlow: dec("-50")}),
		RevenueTrends: models.Loaded([]models.RevenuePoint{
			{Date: "2024-02-01", Income: dec("100"), Expense: dec("50"), Net: dec("50")},
			{Date: "2024-02-02", Income: dec("200"), Expense: dec("125"), Net: dec("75")},
		}),
		SpendingByCategory: models.Unavailable[[]models.CategorySpend](boom),
		BudgetVsActual:     models.Loaded([]models.BudgetLine{{Category: "Rent", Budget: dec("1000"), Actual: dec("900"), Remaining: dec("100")}}),
		RecentTransactions: models.Loaded([]models.Transaction{{Category: "Salary", Date: "2024-02-03", Amount: dec("10"), Type: models.Income}}),
	}

	d := New().Derive(vm)

	require.True(t, d.Summary.OK())
	assert.False(t, d.Summary.Data.NetPositive)

	require.True(t, d.Revenue.OK())
	assert.True(t, d.Revenue.Data.TotalNet.Equal(dec("125")))
	assert.Equal(t, 50.0, d.Revenue.Data.NetChange)

	assert.False(t, d.Spending.OK())
	assert.ErrorIs(t, d.Spending.Err, boom)

	require.True(t, d.Budgets.OK())
	assert.Equal(t, BudgetWarning, d.Budgets.Data[0].Band)

	require.True(t, d.Activity.OK())
	a := d.Activity.Data[0]
	assert.Equal(t, "Salary", a.Title)
	assert.Equal(t, "💰", a.Icon)
	assert.True(t, a.Income)
	assert.Equal(t, 3, a.Date.Day())
}

func TestCategoryShares(t *testing.T) {
	shares := New().CategoryShares([]models.CategorySpend{
		{Category: "Food", Total: dec("75")},
		{Category: "Other", Total: dec("25")},
	})
	require.Len(t, shares, 2)
	assert.Equal(t, 75.0, shares[0].Share)
	assert.Equal(t, FallbackIcon, shares[1].Icon)

	assert.Equal(t, 0.0, New().CategoryShares([]models.CategorySpend{{Category: "x", Total: decimal.Zero}})[0].Share)
}
