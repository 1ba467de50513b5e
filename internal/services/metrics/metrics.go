package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"decisiondash/internal/models"
)

// Service derives presentation-level values from the dashboard view model
type Service struct{}

// New creates a new metrics service
func New() *Service {
	return &Service{}
}

// Summary is the headline metrics with their trend indicators resolved
type Summary struct {
	models.Metrics
	NetPositive      bool
	IncomeTrend      *TrendIndicator
	ExpensesTrend    *TrendIndicator
	NetCashFlowTrend *TrendIndicator
}

// RevenueSummary totals the revenue series across the window
type RevenueSummary struct {
	Points       []models.RevenuePoint
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	TotalNet     decimal.Decimal
	// NetChange is the percent change of net from the first bucket to the last
	NetChange float64
}

// CategoryShare is one category's spending with its share of the total
type CategoryShare struct {
	Category string
	Icon     string
	Total    decimal.Decimal
	Share    float64
}

// Activity is a recent transaction ready for display
type Activity struct {
	Icon     string
	Title    string
	Category string
	Date     time.Time
	RawDate  string
	Amount   decimal.Decimal
	Income   bool
}

// Derived mirrors the view model's sections with computed values.
// A section absent in the view model stays absent here.
type Derived struct {
	Period   models.Period
	LoadedAt time.Time
	Summary  models.Section[Summary]
	Revenue  models.Section[RevenueSummary]
	Spending models.Section[[]CategoryShare]
	Budgets  models.Section[[]Utilization]
	Activity models.Section[[]Activity]
}

// Derive computes every derived section of vm
func (s *Service) Derive(vm *models.ViewModel) *Derived {
	return &Derived{
		Period:   vm.Period,
		LoadedAt: vm.LoadedAt,
		Summary:  models.MapSection(vm.Metrics, s.Summarize),
		Revenue:  models.MapSection(vm.RevenueTrends, s.SummarizeRevenue),
		Spending: models.MapSection(vm.SpendingByCategory, s.CategoryShares),
		Budgets:  models.MapSection(vm.BudgetVsActual, s.BudgetUtilizations),
		Activity: models.MapSection(vm.RecentTransactions, s.Activities),
	}
}

// Summarize resolves the metric trends
func (s *Service) Summarize(m models.Metrics) Summary {
	return Summary{
		Metrics:          m,
		NetPositive:      !m.NetCashFlow.IsNegative(),
		IncomeTrend:      Trend(m.IncomeTrend),
		ExpensesTrend:    Trend(m.ExpensesTrend),
		NetCashFlowTrend: Trend(m.NetCashFlowTrend),
	}
}

// SummarizeRevenue totals a chronological revenue series
func (s *Service) SummarizeRevenue(pts []models.RevenuePoint) RevenueSummary {
	sum := RevenueSummary{
		Points:       pts,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		TotalNet:     decimal.Zero,
	}
	for _, p := range pts {
		sum.TotalIncome = sum.TotalIncome.Add(p.Income)
		sum.TotalExpense = sum.TotalExpense.Add(p.Expense)
		sum.TotalNet = sum.TotalNet.Add(p.Net)
	}
	if len(pts) > 1 {
		first := pts[0].Net.InexactFloat64()
		last := pts[len(pts)-1].Net.InexactFloat64()
		sum.NetChange = s.PercentChange(last, first)
	}
	return sum
}

// CategoryShares attaches icons and each category's share of total spending
func (s *Service) CategoryShares(cats []models.CategorySpend) []CategoryShare {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Total)
	}

	shares := make([]CategoryShare, 0, len(cats))
	for _, c := range cats {
		var share float64
		if !total.IsZero() {
			share = c.Total.InexactFloat64() / total.InexactFloat64() * 100
		}
		shares = append(shares, CategoryShare{
			Category: c.Category,
			Icon:     CategoryIcon(c.Category),
			Total:    c.Total,
			Share:    share,
		})
	}
	return shares
}

// BudgetUtilizations computes utilization for every budget line, keeping order
func (s *Service) BudgetUtilizations(lines []models.BudgetLine) []Utilization {
	out := make([]Utilization, 0, len(lines))
	for _, l := range lines {
		out = append(out, BudgetUtilization(l))
	}
	return out
}

// Activities maps transactions to display rows. A missing description falls back to the category.
func (s *Service) Activities(txs []models.Transaction) []Activity {
	out := make([]Activity, 0, len(txs))
	for _, tx := range txs {
		title := tx.Description
		if title == "" {
			title = tx.Category
		}
		out = append(out, Activity{
			Icon:     CategoryIcon(tx.Category),
			Title:    title,
			Category: tx.Category,
			Date:     tx.Time(),
			RawDate:  tx.Date,
			Amount:   tx.Amount,
			Income:   tx.IsIncome(),
		})
	}
	return out
}

// PercentChange calculates the percentage change between two values
func (s *Service) PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / math.Abs(previous)) * 100
}
