// Package tui renders the dashboard in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
	"decisiondash/internal/services/metrics"
	"decisiondash/internal/services/presenter"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	headingStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	chipStyle    = lipgloss.NewStyle().Padding(0, 1)
	activeChip   = chipStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#89b4fa")).Bold(true)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(24)
)

const barWidth = 20

// Render draws a loaded dashboard. Unavailable sections are shown in place.
func Render(v *presenter.DashboardView) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Decision Dashboard"))
	b.WriteString("  ")
	b.WriteString(periodChips(v))
	b.WriteString("\n")
	if !v.LoadedAt.IsZero() {
		b.WriteString(mutedStyle.Render("Updated " + v.LoadedAt.Local().Format("Jan 2, 2006 3:04 PM")))
		b.WriteString("\n")
	}

	b.WriteString(section("Key Metrics", v.Cards.Err, v.Cards.OK(), func() string { return cards(v.Cards.Data) }))
	b.WriteString(section("Revenue Trends", v.Revenue.Err, v.Revenue.OK(), func() string { return revenue(v.Revenue.Data) }))
	b.WriteString(section("Spending by Category", v.Spending.Err, v.Spending.OK(), func() string { return spending(v.Spending.Data) }))
	b.WriteString(section("Budget vs Actual", v.Budgets.Err, v.Budgets.OK(), func() string { return budgets(v.Budgets.Data) }))
	b.WriteString(section("Recent Transactions", v.Activity.Err, v.Activity.OK(), func() string { return activity(v.Activity.Data) }))

	return b.String()
}

func periodChips(v *presenter.DashboardView) string {
	chips := make([]string, 0, len(v.Periods))
	for i, o := range v.Periods {
		label := fmt.Sprintf("%d %s", i+1, o.Label)
		if o.Active {
			chips = append(chips, activeChip.Render(label))
		} else {
			chips = append(chips, chipStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func section(title string, err error, ok bool, body func() string) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(title))
	b.WriteString("\n")
	if !ok {
		msg := title + " unavailable"
		if err != nil {
			msg += ": " + api.Message(err, "this section could not be loaded")
		}
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(body())
	return b.String()
}

func cards(cs []presenter.MetricCard) string {
	boxes := make([]string, 0, len(cs))
	for _, c := range cs {
		lines := []string{mutedStyle.Render(c.Icon + " " + c.Title), lipgloss.NewStyle().Bold(true).Render(c.Value)}
		sub := c.Subtitle
		if c.Trend != nil {
			style := errorStyle
			if c.Trend.Up {
				style = goodStyle
			}
			sub += "  " + style.Render(c.Trend.String())
		}
		lines = append(lines, mutedStyle.Render(sub))
		boxes = append(boxes, cardStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n"
}

func revenue(r presenter.RevenueView) string {
	if r.Empty {
		return mutedStyle.Render("No revenue data for this period.") + "\n"
	}
	return fmt.Sprintf("Income %s   Expenses %s   Net %s   Net change %s\n",
		goodStyle.Render(r.Income), errorStyle.Render(r.Expense), r.Net, r.NetChange)
}

func spending(s presenter.SpendingView) string {
	if s.Empty {
		return mutedStyle.Render("No spending recorded for this period.") + "\n"
	}
	var b strings.Builder
	for _, row := range s.Rows {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(row.Color)).Render("■")
		fmt.Fprintf(&b, "%s %s %-18s %12s  %s\n", swatch, row.Icon, row.Category, row.Total, mutedStyle.Render(row.Share))
	}
	return b.String()
}

func budgets(rows []presenter.BudgetRow) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No budgets set up yet.") + "\n"
	}
	var b strings.Builder
	for _, row := range rows {
		style := goodStyle
		if row.Over {
			style = errorStyle
		} else if row.Band == metrics.BudgetWarning {
			style = warnStyle
		}
		fmt.Fprintf(&b, "%-14s %s %s  %s  %s\n",
			row.Category, style.Render(bar(row.Fill)), row.Spent, style.Render(row.Used), mutedStyle.Render(row.Remaining))
	}
	return b.String()
}

// bar draws fill (0-100) as a fixed-width gauge
func bar(fill float64) string {
	if math.IsNaN(fill) {
		fill = 0
	}
	n := int(math.Round(fill / 100 * barWidth))
	n = min(max(n, 0), barWidth)
	return "[" + strings.Repeat("█", n) + strings.Repeat("░", barWidth-n) + "]"
}

func activity(rows []presenter.ActivityRow) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No transactions yet.") + "\n"
	}
	var b strings.Builder
	for _, row := range rows {
		amount := errorStyle.Render(row.Amount)
		if strings.HasPrefix(row.Amount, "+") {
			amount = goodStyle.Render(row.Amount)
		}
		fmt.Fprintf(&b, "%s %-28s %-14s %s  %s\n", row.Icon, row.Title, row.Date, mutedStyle.Render(row.Category), amount)
	}
	return b.String()
}

// RenderReport draws a report with its findings
func RenderReport(r presenter.ReportView) string {
	var b strings.Builder
	style := goodStyle
	switch r.Band {
	case models.BandCritical:
		style = errorStyle
	case models.BandAttention:
		style = warnStyle
	}
	fmt.Fprintf(&b, "%s  score %s  %s\n", titleStyle.Render("Risk Report"), r.Score, style.Render(r.Label))
	if r.GeneratedAt != "" {
		b.WriteString(mutedStyle.Render("Generated "+r.GeneratedAt) + "\n")
	}
	if r.HasMetrics {
		fmt.Fprintf(&b, "%s transactions, total %s, average %s\n", r.TotalTransactions, r.TotalAmount, r.AverageAmount)
	}
	findings(&b, "Warnings", r.Warnings, errorStyle)
	findings(&b, "Opportunities", r.Opportunities, goodStyle)
	return b.String()
}

func findings(b *strings.Builder, title string, fs []presenter.FindingView, style lipgloss.Style) {
	b.WriteString(headingStyle.Render(title) + "\n")
	if len(fs) == 0 {
		b.WriteString(mutedStyle.Render("None.") + "\n")
		return
	}
	for _, f := range fs {
		name := f.Rule
		if f.Client != "" {
			name += " (" + f.Client + ")"
		}
		fmt.Fprintf(b, "%s %s\n  %s\n", style.Render("•"), name, f.Explanation)
		if f.Action != "" {
			fmt.Fprintf(b, "  %s\n", mutedStyle.Render("→ "+f.Action))
		}
	}
}
