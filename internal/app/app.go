// Package app wires the dashboard's services together for the server and CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"decisiondash/internal/api"
	"decisiondash/internal/config"
	"decisiondash/internal/models"
	"decisiondash/internal/services/aggregator"
	"decisiondash/internal/services/metrics"
	"decisiondash/internal/services/period"
	"decisiondash/internal/services/presenter"
	"decisiondash/internal/services/storage"
	"decisiondash/internal/services/uploads"
	"decisiondash/internal/session"
)

// ErrPassphraseRequired is returned when the session file is encrypted and no passphrase was given
var ErrPassphraseRequired = errors.New("session storage is encrypted: set DASH_SESSION_PASSPHRASE or unlock interactively")

// App holds the long-lived services
type App struct {
	Config     *config.Config
	Store      *storage.Store
	Session    *session.Context
	Client     *api.Client
	Selector   *period.Selector
	Aggregator *aggregator.Aggregator
	Metrics    *metrics.Service
	Uploads    *uploads.Service
}

// Options adjust construction, mostly for tests and the CLI
type Options struct {
	// HTTPClient replaces the default client built from Config.APITimeout
	HTTPClient *http.Client
	// Passphrase overrides Config.SessionPassphrase
	Passphrase string
}

// New opens the session store under the data directory and builds every service
func New(cfg *config.Config, opts Options) (*App, error) {
	store, err := storage.New(cfg.DataDirectory)
	if err != nil {
		return nil, err
	}

	if store.IsEncrypted() {
		pass := opts.Passphrase
		if pass == "" {
			pass = cfg.SessionPassphrase
		}
		if pass == "" {
			return nil, ErrPassphraseRequired
		}
		if err := store.Unlock(pass); err != nil {
			return nil, fmt.Errorf("unlocking session storage: %w", err)
		}
	}

	sess, err := session.New(store)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = api.NewHTTPClient(cfg.APITimeout)
	}
	client := api.NewClient(cfg.APIURL, sess, httpClient)

	a := &App{
		Config:     cfg,
		Store:      store,
		Session:    sess,
		Client:     client,
		Selector:   period.NewSelector(cfg.DefaultPeriod),
		Aggregator: aggregator.New(client, sess),
		Metrics:    metrics.New(),
		Uploads:    uploads.New(client),
	}
	a.Aggregator.Watch(a.Selector)
	return a, nil
}

// SignIn stores a successful login or registration
func (a *App) SignIn(res *api.AuthResult) error {
	a.Aggregator.Reset()
	a.Uploads.Reset()
	if err := a.Session.Set(res.Token, res.User); err != nil {
		return err
	}
	log.Printf("Signed in as %s", res.User.Email)
	return nil
}

// Logout clears the session and everything loaded under it
func (a *App) Logout() error {
	a.Aggregator.Reset()
	a.Uploads.Reset()
	if err := a.Session.Clear(); err != nil {
		return err
	}
	log.Printf("Signed out")
	return nil
}

// Dashboard selects p, loads every section and projects the result for rendering.
// Section failures are inside the view; err is set only when nothing can be shown.
func (a *App) Dashboard(ctx context.Context, p models.Period) (*presenter.DashboardView, error) {
	if _, err := a.Selector.Select(p); err != nil {
		return nil, err
	}

	vm, err := a.Aggregator.Load(ctx, p)
	if err != nil {
		if api.IsAuth(err) {
			a.Uploads.Reset()
		}
		return nil, err
	}

	view := presenter.Dashboard(a.Metrics.Derive(vm), a.Selector.Options())
	return &view, nil
}

// ViewModel returns the committed view model for p, loading it when the
// committed one is for another period or absent.
func (a *App) ViewModel(ctx context.Context, p models.Period) (*models.ViewModel, error) {
	if vm := a.Aggregator.Current(); vm != nil && vm.Period == p {
		return vm, nil
	}
	return a.Aggregator.Load(ctx, p)
}
