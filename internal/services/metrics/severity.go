package metrics

import (
	"math"
	"strconv"
	"strings"

	"decisiondash/internal/models"
)

const (
	highRiskScore   = 80.0
	mediumRiskScore = 50.0
)

var bandLabels = map[models.SeverityBand]string{
	models.BandCritical:  "High Risk",
	models.BandAttention: "Medium Risk",
	models.BandHealthy:   "Low Risk",
}

// Risk is the display classification of a risk score
type Risk struct {
	Score      float64
	Band       models.SeverityBand
	Label      string
	FromServer bool
}

// RiskSeverity bands a score locally: >=80 critical, >=50 attention, otherwise healthy
func RiskSeverity(score float64) Risk {
	var band models.SeverityBand
	switch {
	case score >= highRiskScore:
		band = models.BandCritical
	case score >= mediumRiskScore:
		band = models.BandAttention
	default:
		band = models.BandHealthy
	}
	return Risk{Score: score, Band: band, Label: bandLabels[band]}
}

// ReportSeverity prefers the band and label the server supplied, falling back
// to local banding of the score when the band is missing or unknown.
func ReportSeverity(r *models.Report) Risk {
	if r == nil {
		return RiskSeverity(0)
	}
	if !r.SeverityBand.Valid() {
		return RiskSeverity(r.RiskScore)
	}
	label := r.SeverityLabel
	if label == "" {
		label = bandLabels[r.SeverityBand]
	}
	return Risk{Score: r.RiskScore, Band: r.SeverityBand, Label: label, FromServer: true}
}

// TrendIndicator is the arrow and magnitude shown under a metric
type TrendIndicator struct {
	Up        bool
	Magnitude float64
}

// Glyph returns the arrow for the trend direction
func (t TrendIndicator) Glyph() string {
	if t.Up {
		return "↑"
	}
	return "↓"
}

// String renders e.g. "↑ 12.5%"
func (t TrendIndicator) String() string {
	return t.Glyph() + " " + strconv.FormatFloat(t.Magnitude, 'f', -1, 64) + "%"
}

// Trend returns nil when there is nothing to show: the value is absent, zero or NaN
func Trend(v *float64) *TrendIndicator {
	if v == nil || *v == 0 || math.IsNaN(*v) {
		return nil
	}
	return &TrendIndicator{Up: *v > 0, Magnitude: math.Abs(*v)}
}

// FallbackIcon is shown for any category without its own glyph
const FallbackIcon = "💳"

var categoryIcons = map[string]string{
	"food":          "🍔",
	"transport":     "🚗",
	"shopping":      "🛍️",
	"entertainment": "🎬",
	"utilities":     "💡",
	"healthcare":    "🏥",
	"education":     "📚",
	"salary":        "💰",
	"freelance":     "💼",
	"investment":    "📈",
}

// CategoryIcon maps a category name to its glyph, ignoring case. Every input has an icon.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[strings.ToLower(category)]; ok {
		return icon
	}
	return FallbackIcon
}
