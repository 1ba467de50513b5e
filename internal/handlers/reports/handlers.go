package reports

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"decisiondash/internal/api"
	"decisiondash/internal/app"
	"decisiondash/internal/handlers/auth"
	apphttp "decisiondash/internal/http"
	"decisiondash/internal/services/presenter"
	"decisiondash/internal/templates"
)

const (
	loadFailed     = "Failed to load report"
	generateFailed = "Failed to generate report"
	historyFailed  = "Failed to load report history"
	weeklyFailed   = "Failed to trigger weekly report"
	weeklyQueued   = "Weekly report queued"
)

var (
	application *app.App
	renderer    *templates.Renderer
)

// Initialize sets up the reports package with required dependencies
func Initialize(a *app.App, r *templates.Renderer) {
	application = a
	renderer = r
}

// RegisterRoutes registers all report routes
func RegisterRoutes(r chi.Router) {
	r.Get("/reports", handleReports)
	r.Post("/reports/generate", handleGenerate)
	r.Get("/reports/history", handleHistory)
	r.Post("/reports/trigger-weekly", handleTriggerWeekly)
}

func handleReports(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":     "Reports",
		"ActiveTab": "reports",
		"User":      application.Session.User(),
	}

	report, err := application.Client.LatestReport(r.Context())
	switch {
	case err != nil:
		if auth.HandleAuthError(w, r, err) {
			return
		}
		log.Printf("Error loading latest report: %v", err)
		data["Error"] = api.Message(err, loadFailed)
	case report != nil:
		view := presenter.Report(report)
		data["Report"] = &view
	}

	apphttp.RenderTemplate(w, renderer, "base", data)
}

func handleGenerate(w http.ResponseWriter, r *http.Request) {
	report, err := application.Client.GenerateReport(r.Context())
	if err != nil {
		if auth.HandleAuthError(w, r, err) {
			return
		}
		log.Printf("Error generating report: %v", err)
		if !apphttp.IsHTMX(r) {
			apphttp.ErrorResponse(w, api.Message(err, generateFailed), http.StatusBadGateway)
			return
		}
		apphttp.RenderPartial(w, renderer, "report-card", map[string]interface{}{
			"Error": api.Message(err, generateFailed),
		})
		return
	}

	if !apphttp.IsHTMX(r) {
		apphttp.Redirect(w, r, "/reports")
		return
	}
	view := presenter.Report(report)
	apphttp.RenderPartial(w, renderer, "report-card", map[string]interface{}{
		"Report": &view,
	})
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{}

	history, err := application.Client.ReportHistory(r.Context())
	if err != nil {
		if auth.HandleAuthError(w, r, err) {
			return
		}
		log.Printf("Error loading report history: %v", err)
		data["Error"] = api.Message(err, historyFailed)
	} else {
		data["Reports"] = presenter.Reports(history)
	}

	apphttp.RenderPartial(w, renderer, "report-history", data)
}

func handleTriggerWeekly(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{}

	msg, err := application.Client.TriggerWeeklyReport(r.Context())
	if err != nil {
		if auth.HandleAuthError(w, r, err) {
			return
		}
		log.Printf("Error triggering weekly report: %v", err)
		data["Error"] = api.Message(err, weeklyFailed)
	} else {
		if msg == "" {
			msg = weeklyQueued
		}
		data["Message"] = msg
	}

	apphttp.RenderPartial(w, renderer, "report-notice", data)
}
