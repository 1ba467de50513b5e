package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeverityBand is the categorical risk label for a report
type SeverityBand string

const (
	BandHealthy   SeverityBand = "healthy"
	BandAttention SeverityBand = "attention"
	BandCritical  SeverityBand = "critical"
)

// Valid reports whether b is a known band
func (b SeverityBand) Valid() bool {
	switch b {
	case BandHealthy, BandAttention, BandCritical:
		return true
	}
	return false
}

// Finding is a single warning or opportunity produced by the report engine
type Finding struct {
	RuleName    string `json:"rule_name"`
	ClientName  string `json:"client_name,omitempty"`
	Explanation string `json:"explanation"`
	Action      string `json:"action,omitempty"`
}

// ReportMetrics are the summary counts attached to a report
type ReportMetrics struct {
	TotalTransactions    int             `json:"total_transactions"`
	AvgTransactionAmount decimal.Decimal `json:"avg_transaction_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
}

// Report is the risk/opportunity report computed server-side.
// It is treated as immutable once fetched.
type Report struct {
	ID            string         `json:"id,omitempty"`
	RiskScore     float64        `json:"risk_score"`
	SeverityBand  SeverityBand   `json:"severity_band,omitempty"`
	SeverityLabel string         `json:"severity_label,omitempty"`
	Warnings      []Finding      `json:"warnings"`
	Opportunities []Finding      `json:"opportunities"`
	Metrics       *ReportMetrics `json:"metrics,omitempty"`
	GeneratedAt   time.Time      `json:"generated_at"`
}
