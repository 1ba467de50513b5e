package http

import (
	"encoding/json"
	"log"
	"net/http"

	"decisiondash/internal/models"
	"decisiondash/internal/templates"
)

// RenderTemplate renders a full page template with data
func RenderTemplate(w http.ResponseWriter, renderer *templates.Renderer, templateName string, data map[string]interface{}) {
	RenderTemplateStatus(w, renderer, http.StatusOK, templateName, data)
}

// RenderTemplateStatus renders a page with a non-200 status, e.g. a login form with an error
func RenderTemplateStatus(w http.ResponseWriter, renderer *templates.Renderer, status int, templateName string, data map[string]interface{}) {
	if renderer != nil {
		renderer.RenderStatus(w, status, templateName, data)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	title, _ := data["Title"].(string)
	if title == "" {
		title = templateName
	}
	w.Write([]byte("<html><body><h1>" + title + "</h1><p>Templates not loaded. Check configuration.</p></body></html>"))
}

// RenderPartial renders a partial template with data
func RenderPartial(w http.ResponseWriter, renderer *templates.Renderer, partialName string, data map[string]interface{}) {
	if renderer != nil {
		renderer.Render(w, partialName, data)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte("<div><!-- Partial " + partialName + " not loaded --></div>"))
}

// ErrorResponse sends an error response
func ErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	log.Printf("Error: %s (status %d)", message, statusCode)
	http.Error(w, message, statusCode)
}

// JSON writes v as a JSON response
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// IsHTMX reports whether the request came from an htmx swap
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Redirect sends the browser to url. htmx requests get an HX-Redirect header
// so the whole page navigates instead of swapping a fragment.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// ParsePeriod reads the "period" query parameter. An empty value yields fallback.
func ParsePeriod(r *http.Request, fallback models.Period) (models.Period, error) {
	v := r.URL.Query().Get("period")
	if v == "" {
		return fallback, nil
	}
	return models.ParsePeriod(v)
}
