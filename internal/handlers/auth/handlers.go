package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"decisiondash/internal/api"
	"decisiondash/internal/app"
	apphttp "decisiondash/internal/http"
	"decisiondash/internal/templates"
)

var (
	application *app.App
	renderer    *templates.Renderer
)

// Initialize sets up the auth package with required dependencies
func Initialize(a *app.App, r *templates.Renderer) {
	application = a
	renderer = r
}

// RegisterRoutes registers the public sign-in routes
func RegisterRoutes(r chi.Router) {
	r.Get("/login", handleLoginPage)
	r.Post("/login", handleLogin)
	r.Get("/register", handleRegisterPage)
	r.Post("/register", handleRegister)
	r.Post("/logout", handleLogout)
	r.Get("/logout", handleLogout)
}

// RequireSession redirects to the login page when nobody is signed in
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if application == nil || !application.Session.Authenticated() {
			apphttp.Redirect(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleAuthError signs out and redirects when err is an authentication
// failure. It reports whether the response has been written.
func HandleAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	if !api.IsAuth(err) {
		return false
	}
	if logoutErr := application.Logout(); logoutErr != nil {
		log.Printf("Error clearing session: %v", logoutErr)
	}
	apphttp.Redirect(w, r, "/login")
	return true
}

func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if application.Session.Authenticated() {
		apphttp.Redirect(w, r, "/dashboard")
		return
	}
	apphttp.RenderTemplate(w, renderer, "base", map[string]interface{}{
		"Title":     "Sign In",
		"ActiveTab": "login",
		"Email":     "",
	})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apphttp.ErrorResponse(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	creds := api.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	res, err := application.Client.Login(r.Context(), creds)
	if err != nil {
		log.Printf("Login failed for %s: %v", creds.Email, err)
		apphttp.RenderTemplateStatus(w, renderer, statusFor(err), "base", map[string]interface{}{
			"Title":     "Sign In",
			"ActiveTab": "login",
			"Email":     creds.Email,
			"Error":     api.Message(err, "Login failed"),
		})
		return
	}

	if err := application.SignIn(res); err != nil {
		apphttp.ErrorResponse(w, "Failed to save session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	apphttp.Redirect(w, r, "/dashboard")
}

func handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if application.Session.Authenticated() {
		apphttp.Redirect(w, r, "/dashboard")
		return
	}
	apphttp.RenderTemplate(w, renderer, "base", map[string]interface{}{
		"Title":        "Create Account",
		"ActiveTab":    "register",
		"Email":        "",
		"BusinessName": "",
	})
}

func handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apphttp.ErrorResponse(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	reg := api.Registration{
		Email:        strings.TrimSpace(r.FormValue("email")),
		Password:     r.FormValue("password"),
		BusinessName: strings.TrimSpace(r.FormValue("businessName")),
	}

	res, err := application.Client.Register(r.Context(), reg)
	if err != nil {
		log.Printf("Registration failed for %s: %v", reg.Email, err)
		apphttp.RenderTemplateStatus(w, renderer, statusFor(err), "base", map[string]interface{}{
			"Title":        "Create Account",
			"ActiveTab":    "register",
			"Email":        reg.Email,
			"BusinessName": reg.BusinessName,
			"Error":        api.Message(err, "Registration failed"),
		})
		return
	}

	if err := application.SignIn(res); err != nil {
		apphttp.ErrorResponse(w, "Failed to save session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	apphttp.Redirect(w, r, "/dashboard")
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := application.Logout(); err != nil {
		log.Printf("Error clearing session: %v", err)
	}
	apphttp.Redirect(w, r, "/login")
}

// statusFor maps a sign-in failure to the status of the re-rendered form
func statusFor(err error) int {
	switch {
	case api.IsValidation(err):
		return http.StatusBadRequest
	case api.IsAuth(err):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
