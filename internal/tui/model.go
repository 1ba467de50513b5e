package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
	"decisiondash/internal/services/aggregator"
	"decisiondash/internal/services/presenter"
)

// Loader loads a dashboard view for a period; app.App satisfies it
type Loader interface {
	Dashboard(ctx context.Context, p models.Period) (*presenter.DashboardView, error)
}

type loadedMsg struct {
	seq    uint64
	period models.Period
	view   *presenter.DashboardView
	err    error
}

// Model is the interactive dashboard. Keys 1-4 pick a period, r reloads, q quits.
type Model struct {
	loader  Loader
	period  models.Period
	seq     uint64
	loading bool

	view *presenter.DashboardView
	err  error

	// SignedOut is set when the API rejected the session
	SignedOut bool
}

// New creates a model that starts loading p
func New(loader Loader, p models.Period) Model {
	if !p.Valid() {
		p = models.DefaultPeriod
	}
	return Model{loader: loader, period: p, seq: 1, loading: true}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

// load starts a request for the current period under a fresh sequence number
func (m *Model) load() tea.Cmd {
	m.seq++
	m.loading = true
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	seq, p, loader := m.seq, m.period, m.loader
	return func() tea.Msg {
		view, err := loader.Dashboard(context.Background(), p)
		return loadedMsg{seq: seq, period: p, view: view, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			cmd := m.load()
			return m, cmd
		case "1", "2", "3", "4":
			p := models.Periods[int(key[0]-'1')]
			if p == m.period && m.view != nil {
				return m, nil
			}
			m.period = p
			cmd := m.load()
			return m, cmd
		}

	case loadedMsg:
		// A newer request is in flight; its result will replace this one
		if msg.seq != m.seq || errors.Is(msg.err, aggregator.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		if api.IsAuth(msg.err) {
			m.SignedOut = true
			m.err = msg.err
			return m, tea.Quit
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = msg.view
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	switch {
	case m.view != nil:
		b.WriteString(Render(m.view))
	case m.loading:
		b.WriteString(mutedStyle.Render("Loading " + m.period.Label() + "…"))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		if m.SignedOut {
			b.WriteString(errorStyle.Render("Session expired. Run `dashctl login` to sign in again."))
		} else {
			b.WriteString(errorStyle.Render(api.Message(m.err, "Failed to load dashboard")))
		}
		b.WriteString("\n")
	}

	status := "1-4 period · r refresh · q quit"
	if m.loading && m.view != nil {
		status = "Loading " + m.period.Label() + "… · " + status
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(status))
	b.WriteString("\n")
	return b.String()
}

// Period returns the period the model is showing or loading
func (m Model) Period() models.Period {
	return m.period
}

// Current returns the last view that finished loading
func (m Model) Current() *presenter.DashboardView {
	return m.view
}
