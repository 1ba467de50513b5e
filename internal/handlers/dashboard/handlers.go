package dashboard

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"decisiondash/internal/api"
	"decisiondash/internal/app"
	"decisiondash/internal/handlers/auth"
	apphttp "decisiondash/internal/http"
	"decisiondash/internal/models"
	"decisiondash/internal/services/aggregator"
	"decisiondash/internal/services/presenter"
	"decisiondash/internal/templates"
)

var (
	application *app.App
	renderer    *templates.Renderer
)

// Initialize sets up the dashboard package with required dependencies
func Initialize(a *app.App, r *templates.Renderer) {
	application = a
	renderer = r
}

// RegisterRoutes registers all dashboard routes
func RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", handleDashboard)
	r.Get("/dashboard/content", handleDashboardContent)
	r.Post("/dashboard/refresh", handleRefresh)
	r.Get("/dashboard/charts/data/{chartType}", handleChartData)
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := loadView(w, r)
	if !ok {
		return
	}

	apphttp.RenderTemplate(w, renderer, "base", map[string]interface{}{
		"Title":     "Dashboard",
		"ActiveTab": "dashboard",
		"User":      application.Session.User(),
		"View":      view,
	})
}

// handleDashboardContent re-renders the dashboard body when the period chips are clicked
func handleDashboardContent(w http.ResponseWriter, r *http.Request) {
	view, ok := loadView(w, r)
	if !ok {
		return
	}

	apphttp.RenderPartial(w, renderer, "dashboard-body", map[string]interface{}{
		"View": view,
	})
}

func handleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := apphttp.ParsePeriod(r, application.Selector.Current())
	if err != nil {
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := application.Aggregator.Refresh(p); err != nil {
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	apphttp.Redirect(w, r, "/dashboard?period="+p.String())
}

// loadView runs the load for the requested period. On failure the response
// has been written and ok is false.
func loadView(w http.ResponseWriter, r *http.Request) (*presenter.DashboardView, bool) {
	p, err := apphttp.ParsePeriod(r, application.Selector.Current())
	if err != nil {
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	view, err := application.Dashboard(r.Context(), p)
	if err == nil {
		return view, true
	}

	switch {
	case auth.HandleAuthError(w, r, err):
	case errors.Is(err, aggregator.ErrSuperseded):
		// Another request moved the selection; follow it
		current := application.Selector.Current()
		log.Printf("Dashboard load for %s superseded, showing %s", p, current)
		apphttp.Redirect(w, r, "/dashboard?period="+current.String())
	case api.IsCanceled(err):
		log.Printf("Dashboard request cancelled: %v", err)
	case api.IsValidation(err):
		apphttp.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		apphttp.ErrorResponse(w, api.Message(err, "Failed to load dashboard"), http.StatusBadGateway)
	}
	return nil, false
}

func handleChartData(w http.ResponseWriter, r *http.Request) {
	chartType := chi.URLParam(r, "chartType")

	p, err := apphttp.ParsePeriod(r, application.Selector.Current())
	if err != nil {
		apphttp.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	vm, err := application.ViewModel(r.Context(), p)
	if err != nil {
		if auth.HandleAuthError(w, r, err) {
			return
		}
		apphttp.JSON(w, http.StatusBadGateway, map[string]string{"error": api.Message(err, "Failed to load chart data")})
		return
	}

	var (
		chart    models.ChartResponse
		chartErr error
	)
	d := application.Metrics.Derive(vm)
	switch chartType {
	case "revenue":
		chart = presenter.RevenueChart(d.Revenue.Data.Points)
		chartErr = d.Revenue.Err
	case "spending":
		chart = presenter.SpendingChart(d.Spending.Data)
		chartErr = d.Spending.Err
	default:
		apphttp.JSON(w, http.StatusNotFound, map[string]string{"error": "Unknown chart type: " + chartType})
		return
	}

	if chartErr != nil {
		apphttp.JSON(w, http.StatusBadGateway, map[string]string{"error": api.Message(chartErr, "This chart is unavailable right now.")})
		return
	}

	w.Header().Set("X-Dashboard-Generation", strconv.FormatUint(vm.Generation, 10))
	apphttp.JSON(w, http.StatusOK, chart)
}
