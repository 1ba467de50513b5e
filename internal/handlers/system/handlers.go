package system

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"decisiondash/internal/app"
	apphttp "decisiondash/internal/http"
	"decisiondash/internal/services/storage"
	"decisiondash/internal/version"
)

const (
	plotlyURL   = "https://cdn.plot.ly/plotly-2.35.2.min.js"
	plotlyCache = "plotly.min.js"
)

var (
	application *app.App
	store       *storage.Store
)

// Initialize sets up the system package with required dependencies
func Initialize(a *app.App) {
	application = a
	store = a.Store
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "ok",
		"version":       version.Get().Version,
		"authenticated": application.Session.Authenticated(),
		"apiUrl":        application.Client.BaseURL(),
	})
}

// HandleStorageStatus reports whether the session file is encrypted at rest
func HandleStorageStatus(w http.ResponseWriter, r *http.Request) {
	apphttp.JSON(w, http.StatusOK, map[string]bool{
		"encrypted": store.IsEncrypted(),
		"unlocked":  store.IsUnlocked(),
	})
}

// HandleEnableEncryption seals the session file with the posted passphrase
func HandleEnableEncryption(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apphttp.ErrorResponse(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if err := store.EnableEncryption(r.FormValue("passphrase")); err != nil {
		apphttp.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("Session storage encryption enabled")
	HandleStorageStatus(w, r)
}

// HandleDisableEncryption writes the session file back in plaintext
func HandleDisableEncryption(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apphttp.ErrorResponse(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if err := store.DisableEncryption(r.FormValue("passphrase")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, storage.ErrWrongPassphrase) {
			status = http.StatusForbidden
		}
		apphttp.JSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("Session storage encryption disabled")
	HandleStorageStatus(w, r)
}

// HandlePlotly serves plotly.js from the data directory, fetching it once from the CDN
func HandlePlotly(w http.ResponseWriter, r *http.Request) {
	if data, err := store.ReadFile(plotlyCache); err == nil {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 1 year
		w.Write(data)
		return
	}

	log.Println("Fetching plotly.min.js from CDN...")
	resp, err := http.Get(plotlyURL)
	if err != nil {
		http.Error(w, "Failed to fetch plotly: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.Error(w, "CDN returned status: "+resp.Status, http.StatusBadGateway)
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "Failed to read plotly response: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := store.WriteFile(plotlyCache, data); err != nil {
		log.Printf("Warning: could not cache plotly.min.js: %v", err)
	} else {
		log.Println("Cached plotly.min.js for future requests")
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Write(data)
}
