package upload

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"decisiondash/internal/api"
	"decisiondash/internal/app"
	"decisiondash/internal/handlers/auth"
	apphttp "decisiondash/internal/http"
	"decisiondash/internal/models"
	"decisiondash/internal/services/uploads"
	"decisiondash/internal/templates"
)

// maxUploadSize bounds the multipart form held in memory
const maxUploadSize = 32 << 20

var (
	application *app.App
	renderer    *templates.Renderer
)

// Initialize sets up the upload package with required dependencies
func Initialize(a *app.App, r *templates.Renderer) {
	application = a
	renderer = r
}

// RegisterRoutes registers the CSV upload routes
func RegisterRoutes(r chi.Router) {
	r.Get("/upload", handleUploadPage)
	r.Post("/upload/{type}", handleUpload)
}

// typeCard is one entry of the upload type picker
type typeCard struct {
	Type    models.UploadType
	Label   string
	Icon    string
	Format  string
	Outcome *uploads.Outcome
}

func handleUploadPage(w http.ResponseWriter, r *http.Request) {
	outcomes := application.Uploads.Outcomes()
	cards := make([]typeCard, 0, len(models.UploadTypes))
	for _, t := range models.UploadTypes {
		card := typeCard{Type: t, Label: t.Label(), Icon: t.Icon(), Format: t.FormatGuide()}
		if o, ok := outcomes[t]; ok {
			card.Outcome = &o
		}
		cards = append(cards, card)
	}

	apphttp.RenderTemplate(w, renderer, "base", map[string]interface{}{
		"Title":     "Upload Data",
		"ActiveTab": "upload",
		"User":      application.Session.User(),
		"Types":     cards,
		"Field":     api.UploadFileField,
	})
}

func handleUpload(w http.ResponseWriter, r *http.Request) {
	t := models.UploadType(chi.URLParam(r, "type"))

	var (
		filename string
		file     io.Reader
	)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		apphttp.ErrorResponse(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	f, header, err := r.FormFile(api.UploadFileField)
	switch {
	case err == nil:
		defer f.Close()
		filename = header.Filename
		file = f
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// leave file nil so the upload service reports the missing selection
	default:
		apphttp.ErrorResponse(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := application.Uploads.Upload(r.Context(), t, filename, file)
	if err != nil && auth.HandleAuthError(w, r, err) {
		return
	}

	status := http.StatusOK
	switch {
	case err == nil:
	case api.IsValidation(err):
		status = http.StatusBadRequest
	default:
		log.Printf("Upload of %s failed: %v", t, err)
		status = http.StatusBadGateway
	}

	data := map[string]interface{}{
		"Type":    t,
		"Label":   t.Label(),
		"Outcome": outcome,
	}
	if renderer == nil {
		apphttp.JSON(w, status, outcome.Result)
		return
	}
	if apphttp.IsHTMX(r) {
		// htmx only swaps 2xx responses; the failure is shown inside the fragment
		status = http.StatusOK
	}
	out, renderErr := renderer.RenderToString("upload-result", data)
	if renderErr != nil {
		log.Printf("Error rendering upload result: %v", renderErr)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, out)
}
