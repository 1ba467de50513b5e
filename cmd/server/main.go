package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"decisiondash/internal/app"
	"decisiondash/internal/config"
	"decisiondash/internal/handlers/auth"
	"decisiondash/internal/handlers/dashboard"
	"decisiondash/internal/handlers/reports"
	"decisiondash/internal/handlers/system"
	"decisiondash/internal/handlers/upload"
	"decisiondash/internal/templates"
	"decisiondash/internal/version"
)

var (
	cfg         *config.Config
	application *app.App
	renderer    *templates.Renderer
)

func main() {
	c, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	info := version.Get()
	log.Printf("Starting Decision Dashboard %s on %s", info.Short(), c.ListenAddr)
	if warning := info.Check(); warning != "" {
		log.Print(warning)
	}
	if c.ConfigFile != "" {
		log.Printf("Config file: %s", c.ConfigFile)
	}
	log.Printf("API: %s", c.APIURL)
	log.Printf("Data directory: %s", c.DataDirectory)

	if err := SetupDependencies(c); err != nil {
		log.Fatalf("Error initializing: %v", err)
	}

	srv := &http.Server{
		Addr:              c.ListenAddr,
		Handler:           SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", c.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	application.Aggregator.Invalidate()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// SetupDependencies builds the application and template renderer from c
func SetupDependencies(c *config.Config) error {
	cfg = c

	a, err := app.New(c, app.Options{})
	if err != nil {
		return err
	}
	application = a

	renderer, err = templates.New(c.TemplatesDirectory, c.Debug)
	if err != nil {
		log.Printf("Warning: could not load templates: %v", err)
		renderer = nil
	}

	auth.Initialize(application, renderer)
	dashboard.Initialize(application, renderer)
	reports.Initialize(application, renderer)
	upload.Initialize(application, renderer)
	system.Initialize(application)
	return nil
}

// SetupRouter builds the HTTP routes. SetupDependencies must run first.
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	fileServer := http.FileServer(http.Dir(cfg.StaticDirectory))
	r.Get("/static/plotly.min.js", system.HandlePlotly)
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
	})

	r.Get("/api/health", system.HandleHealth)
	r.Get("/api/storage", system.HandleStorageStatus)

	auth.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)
		dashboard.RegisterRoutes(r)
		reports.RegisterRoutes(r)
		upload.RegisterRoutes(r)
		r.Post("/api/storage/encrypt", system.HandleEnableEncryption)
		r.Post("/api/storage/decrypt", system.HandleDisableEncryption)
	})

	return r
}
