package presenter

import (
	"fmt"
	"time"

	"decisiondash/internal/models"
	"decisiondash/internal/services/metrics"
	"decisiondash/internal/services/period"
)

// MetricCard is one headline tile
type MetricCard struct {
	Title    string
	Value    string
	Subtitle string
	Icon     string
	Color    string // blue, green, red, purple
	Trend    *metrics.TrendIndicator
}

// TrendClass is the text color class for the card's trend
func (c MetricCard) TrendClass() string {
	if c.Trend != nil && c.Trend.Up {
		return "text-green-600"
	}
	return "text-red-600"
}

// BudgetRow is one progress bar in the budget panel
type BudgetRow struct {
	Category       string
	Spent          string // "$120.00 / $100.00"
	Used           string // "120.0% used"
	Fill           float64
	BarClass       string
	UsedClass      string
	Remaining      string // "$20.00 over"
	RemainingClass string
	Over           bool
	Band           metrics.BudgetBand
}

// ActivityRow is one recent transaction
type ActivityRow struct {
	Icon        string
	Title       string
	Date        string
	Category    string
	Amount      string
	AmountClass string
}

// SpendingRow is one category in the spending legend
type SpendingRow struct {
	Icon     string
	Category string
	Total    string
	Share    string
	Color    string
}

// RevenueView is the revenue panel
type RevenueView struct {
	Chart     models.ChartResponse
	Income    string
	Expense   string
	Net       string
	NetChange string
	Empty     bool
}

// SpendingView is the spending panel
type SpendingView struct {
	Chart models.ChartResponse
	Rows  []SpendingRow
	Empty bool
}

// DashboardView is everything the dashboard page renders. Each section
// carries its own failure so pages can show it inline.
type DashboardView struct {
	Period   models.Period
	Periods  []period.Option
	LoadedAt time.Time

	Cards    models.Section[[]MetricCard]
	Revenue  models.Section[RevenueView]
	Spending models.Section[SpendingView]
	Budgets  models.Section[[]BudgetRow]
	Activity models.Section[[]ActivityRow]
}

// Dashboard projects derived data for rendering
func Dashboard(d *metrics.Derived, periods []period.Option) DashboardView {
	return DashboardView{
		Period:   d.Period,
		Periods:  periods,
		LoadedAt: d.LoadedAt,
		Cards:    models.MapSection(d.Summary, MetricCards),
		Revenue:  models.MapSection(d.Revenue, Revenue),
		Spending: models.MapSection(d.Spending, Spending),
		Budgets:  models.MapSection(d.Budgets, BudgetRows),
		Activity: models.MapSection(d.Activity, ActivityRows),
	}
}

// MetricCards builds the four headline tiles
func MetricCards(s metrics.Summary) []MetricCard {
	netColor := "green"
	if !s.NetPositive {
		netColor = "red"
	}
	return []MetricCard{
		{
			Title:    "Total Income",
			Value:    Money(s.Income),
			Subtitle: "Last 30 days",
			Icon:     "💰",
			Color:    "green",
			Trend:    s.IncomeTrend,
		},
		{
			Title:    "Total Expenses",
			Value:    Money(s.Expenses),
			Subtitle: "Last 30 days",
			Icon:     "💸",
			Color:    "red",
			Trend:    s.ExpensesTrend,
		},
		{
			Title:    "Net Cash Flow",
			Value:    Money(s.NetCashFlow),
			Subtitle: fmt.Sprintf("%s%% savings rate", s.SavingsRate.String()),
			Icon:     "📊",
			Color:    netColor,
			Trend:    s.NetCashFlowTrend,
		},
		{
			Title:    "Active Goals",
			Value:    fmt.Sprintf("%d", s.ActiveGoals),
			Subtitle: fmt.Sprintf("%d subscriptions", s.ActiveSubscriptions),
			Icon:     "🎯",
			Color:    "purple",
		},
	}
}

// Revenue builds the revenue chart and totals
func Revenue(r metrics.RevenueSummary) RevenueView {
	return RevenueView{
		Chart:     RevenueChart(r.Points),
		Income:    Money(r.TotalIncome),
		Expense:   Money(r.TotalExpense),
		Net:       Money(r.TotalNet),
		NetChange: signedPercent(r.NetChange),
		Empty:     len(r.Points) == 0,
	}
}

// RevenueChart is two filled areas for income and expenses with the net as a line
func RevenueChart(pts []models.RevenuePoint) models.ChartResponse {
	x := make([]string, len(pts))
	income := make([]float64, len(pts))
	expense := make([]float64, len(pts))
	net := make([]float64, len(pts))
	for i, p := range pts {
		x[i] = AxisDate(p.Date)
		income[i] = p.Income.InexactFloat64()
		expense[i] = p.Expense.InexactFloat64()
		net[i] = p.Net.InexactFloat64()
	}

	return models.ChartResponse{
		Data: []models.ChartData{
			{Type: "scatter", Mode: "lines", Fill: "tozeroy", Name: "Income", X: x, Y: income, Line: &models.ChartLine{Color: IncomeColor}},
			{Type: "scatter", Mode: "lines", Fill: "tozeroy", Name: "Expenses", X: x, Y: expense, Line: &models.ChartLine{Color: ExpenseColor}},
			{Type: "scatter", Mode: "lines+markers", Name: "Net Cash Flow", X: x, Y: net, Line: &models.ChartLine{Color: NetColor, Width: 3}},
		},
		Layout: models.ChartLayout{Title: "Revenue Trends", ShowLegend: true},
	}
}

// Spending builds the spending chart and legend rows
func Spending(shares []metrics.CategoryShare) SpendingView {
	rows := make([]SpendingRow, len(shares))
	for i, s := range shares {
		rows[i] = SpendingRow{
			Icon:     s.Icon,
			Category: s.Category,
			Total:    Money(s.Total),
			Share:    Percent(s.Share),
			Color:    ColorAt(i),
		}
	}
	return SpendingView{
		Chart: SpendingChart(shares),
		Rows:  rows,
		Empty: len(shares) == 0,
	}
}

// SpendingChart is one bar per category colored by position
func SpendingChart(shares []metrics.CategoryShare) models.ChartResponse {
	x := make([]string, len(shares))
	y := make([]float64, len(shares))
	colors := make([]string, len(shares))
	for i, s := range shares {
		x[i] = s.Category
		y[i] = s.Total.InexactFloat64()
		colors[i] = ColorAt(i)
	}
	return models.ChartResponse{
		Data: []models.ChartData{
			{Type: "bar", Name: "Spending", X: x, Y: y, Marker: &models.ChartMarker{Color: colors}},
		},
		Layout: models.ChartLayout{Title: "Spending by Category"},
	}
}

// BudgetRows renders utilization bars
func BudgetRows(us []metrics.Utilization) []BudgetRow {
	rows := make([]BudgetRow, 0, len(us))
	for _, u := range us {
		row := BudgetRow{
			Category:       u.Category,
			Spent:          Money(u.Actual) + " / " + Money(u.Budget),
			Used:           Percent(u.Percent) + " used",
			Fill:           u.Fill,
			BarClass:       "bg-green-500",
			UsedClass:      "text-green-600",
			Remaining:      Money(u.RemainingAbs) + " " + u.RemainingLabel,
			RemainingClass: "text-gray-500",
			Over:           u.IsOverBudget,
			Band:           u.Band,
		}
		switch u.Band {
		case metrics.BudgetOver:
			row.BarClass = "bg-red-500"
			row.UsedClass = "text-red-600"
			row.RemainingClass = "text-red-600"
		case metrics.BudgetWarning:
			row.BarClass = "bg-yellow-500"
		}
		rows = append(rows, row)
	}
	return rows
}

// ActivityRows renders the recent transactions list
func ActivityRows(as []metrics.Activity) []ActivityRow {
	rows := make([]ActivityRow, 0, len(as))
	for _, a := range as {
		class := "text-red-600"
		if a.Income {
			class = "text-green-600"
		}
		rows = append(rows, ActivityRow{
			Icon:        a.Icon,
			Title:       a.Title,
			Date:        RowDate(a.RawDate),
			Category:    a.Category,
			Amount:      SignedMoney(a.Amount, a.Income),
			AmountClass: class,
		})
	}
	return rows
}

func signedPercent(v float64) string {
	if v > 0 {
		return "+" + Percent(v)
	}
	return Percent(v)
}
