package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metrics contains the headline KPIs for the dashboard
type Metrics struct {
	Income              decimal.Decimal `json:"income"`
	Expenses            decimal.Decimal `json:"expenses"`
	NetCashFlow         decimal.Decimal `json:"netCashFlow"`
	SavingsRate         decimal.Decimal `json:"savingsRate"`
	ActiveGoals         int             `json:"activeGoals"`
	ActiveSubscriptions int             `json:"activeSubscriptions"`

	// Optional period-over-period changes, in percent
	IncomeTrend      *float64 `json:"incomeTrend,omitempty"`
	ExpensesTrend    *float64 `json:"expensesTrend,omitempty"`
	NetCashFlowTrend *float64 `json:"netCashFlowTrend,omitempty"`
}

// RevenuePoint is one bucket of the revenue trend series
type RevenuePoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategorySpend is total spending in one category
type CategorySpend struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// BudgetLine compares a category's budget with actual spending
type BudgetLine struct {
	Category  string          `json:"category"`
	Budget    decimal.Decimal `json:"budget"`
	Actual    decimal.Decimal `json:"actual"`
	Remaining decimal.Decimal `json:"remaining"`
}

// SectionName identifies one independently fetched part of the dashboard
type SectionName string

const (
	SectionMetrics            SectionName = "metrics"
	SectionRevenueTrends      SectionName = "revenueTrends"
	SectionSpendingByCategory SectionName = "spendingByCategory"
	SectionBudgetVsActual     SectionName = "budgetVsActual"
	SectionRecentTransactions SectionName = "recentTransactions"
)

// SectionNames lists every dashboard section in render order
var SectionNames = []SectionName{
	SectionMetrics,
	SectionRevenueTrends,
	SectionSpendingByCategory,
	SectionBudgetVsActual,
	SectionRecentTransactions,
}

// Section holds the settled outcome of one fetch. A failed section carries
// its error and no data; it is never an empty-but-present value.
type Section[T any] struct {
	Data T
	Err  error
	ok   bool
}

// Loaded wraps successfully fetched data
func Loaded[T any](data T) Section[T] {
	return Section[T]{Data: data, ok: true}
}

// Unavailable marks a section whose fetch failed
func Unavailable[T any](err error) Section[T] {
	return Section[T]{Err: err}
}

// Settle builds a section from a fetch result
func Settle[T any](data T, err error) Section[T] {
	if err != nil {
		return Unavailable[T](err)
	}
	return Loaded(data)
}

// OK reports whether the section holds data
func (s Section[T]) OK() bool {
	return s.ok
}

// MapSection projects a section's data, carrying failures through unchanged
func MapSection[T, U any](s Section[T], fn func(T) U) Section[U] {
	if !s.ok {
		return Unavailable[U](s.Err)
	}
	return Loaded(fn(s.Data))
}

// ViewModel is the normalized aggregate of the five analytics fetches for one period
type ViewModel struct {
	Period     Period
	Generation uint64
	LoadID     string
	LoadedAt   time.Time

	Metrics            Section[Metrics]
	RevenueTrends      Section[[]RevenuePoint]
	SpendingByCategory Section[[]CategorySpend]
	BudgetVsActual     Section[[]BudgetLine]
	RecentTransactions Section[[]Transaction]
}

// Failed returns the sections that did not load, in render order
func (vm *ViewModel) Failed() []SectionName {
	var failed []SectionName
	for _, name := range SectionNames {
		if !vm.SectionOK(name) {
			failed = append(failed, name)
		}
	}
	return failed
}

// SectionOK reports whether the named section loaded
func (vm *ViewModel) SectionOK(name SectionName) bool {
	switch name {
	case SectionMetrics:
		return vm.Metrics.OK()
	case SectionRevenueTrends:
		return vm.RevenueTrends.OK()
	case SectionSpendingByCategory:
		return vm.SpendingByCategory.OK()
	case SectionBudgetVsActual:
		return vm.BudgetVsActual.OK()
	case SectionRecentTransactions:
		return vm.RecentTransactions.OK()
	}
	return false
}

// Complete reports whether every section loaded
func (vm *ViewModel) Complete() bool {
	return len(vm.Failed()) == 0
}

// ChartData represents one Plotly trace
type ChartData struct {
	Type   string       `json:"type"`             // bar, scatter
	X      interface{}  `json:"x"`                // x-axis values
	Y      interface{}  `json:"y"`                // y-axis values
	Name   string       `json:"name,omitempty"`   // series name
	Mode   string       `json:"mode,omitempty"`   // for scatter: lines, markers, lines+markers
	Fill   string       `json:"fill,omitempty"`   // tozeroy for area series
	Line   *ChartLine   `json:"line,omitempty"`   // series stroke
	Marker *ChartMarker `json:"marker,omitempty"` // per-point colors for bars
}

// ChartLine sets the stroke of a scatter trace
type ChartLine struct {
	Color string  `json:"color"`
	Width float64 `json:"width,omitempty"`
}

// ChartMarker sets marker colors; Color is a single color or one per point
type ChartMarker struct {
	Color interface{} `json:"color"`
}

// ChartResponse wraps chart data with layout options
type ChartResponse struct {
	Data   []ChartData `json:"data"`
	Layout ChartLayout `json:"layout,omitempty"`
}

// ChartLayout defines Plotly layout options
type ChartLayout struct {
	Title      string `json:"title,omitempty"`
	XAxisTitle string `json:"xaxis_title,omitempty"`
	YAxisTitle string `json:"yaxis_title,omitempty"`
	ShowLegend bool   `json:"showlegend,omitempty"`
}
