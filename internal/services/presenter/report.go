package presenter

import (
	"strconv"

	"decisiondash/internal/models"
	"decisiondash/internal/services/metrics"
)

// FindingView is one warning or opportunity card
type FindingView struct {
	Rule        string
	Client      string
	Explanation string
	Action      string
}

// ReportView is the report page body
type ReportView struct {
	ID            string
	Score         string
	Label         string
	Band          models.SeverityBand
	RiskClass     string
	Warnings      []FindingView
	Opportunities []FindingView

	HasMetrics        bool
	TotalTransactions string
	TotalAmount       string
	AverageAmount     string

	GeneratedAt string
}

var riskClasses = map[models.SeverityBand]string{
	models.BandCritical:  "text-red-600 bg-red-100",
	models.BandAttention: "text-yellow-600 bg-yellow-100",
	models.BandHealthy:   "text-green-600 bg-green-100",
}

// Report projects a report for display
func Report(r *models.Report) ReportView {
	risk := metrics.ReportSeverity(r)
	v := ReportView{
		ID:            r.ID,
		Score:         strconv.FormatFloat(r.RiskScore, 'f', -1, 64),
		Label:         risk.Label,
		Band:          risk.Band,
		RiskClass:     riskClasses[risk.Band],
		Warnings:      findings(r.Warnings),
		Opportunities: findings(r.Opportunities),
	}
	if r.Metrics != nil {
		v.HasMetrics = true
		v.TotalTransactions = strconv.Itoa(r.Metrics.TotalTransactions)
		v.TotalAmount = Money(r.Metrics.TotalAmount)
		v.AverageAmount = Money(r.Metrics.AvgTransactionAmount)
	}
	if !r.GeneratedAt.IsZero() {
		v.GeneratedAt = r.GeneratedAt.Local().Format("Jan 2, 2006 3:04 PM")
	}
	return v
}

// Reports projects a report history list
func Reports(rs []models.Report) []ReportView {
	out := make([]ReportView, 0, len(rs))
	for i := range rs {
		out = append(out, Report(&rs[i]))
	}
	return out
}

func findings(fs []models.Finding) []FindingView {
	out := make([]FindingView, 0, len(fs))
	for _, f := range fs {
		out = append(out, FindingView{
			Rule:        f.RuleName,
			Client:      f.ClientName,
			Explanation: f.Explanation,
			Action:      f.Action,
		})
	}
	return out
}
