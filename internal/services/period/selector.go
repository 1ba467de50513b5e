// Package period tracks the dashboard's active reporting window.
package period

import (
	"fmt"
	"sync"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
)

// ChangeFunc is called after the selection moves from prev to next
type ChangeFunc = func(prev, next models.Period)

// Option is one selector chip for rendering
type Option struct {
	Period models.Period
	Label  string
	Active bool
}

// Selector holds the current period. Exactly one period is selected at any time.
type Selector struct {
	mu        sync.RWMutex
	current   models.Period
	listeners []ChangeFunc
}

// NewSelector starts at initial, or at the default window when initial is not selectable
func NewSelector(initial models.Period) *Selector {
	if !initial.Valid() {
		initial = models.DefaultPeriod
	}
	return &Selector{current: initial}
}

// Current returns the selected period
func (s *Selector) Current() models.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Select makes p current. Selecting the current period changes nothing and
// notifies no one. Listeners run synchronously, outside the lock.
func (s *Selector) Select(p models.Period) (bool, error) {
	if !p.Valid() {
		return false, &api.ValidationError{
			Field:   "period",
			Message: fmt.Sprintf("unsupported period %d: choose one of 7, 30, 90 or 365", int(p)),
		}
	}

	s.mu.Lock()
	prev := s.current
	if prev == p {
		s.mu.Unlock()
		return false, nil
	}
	s.current = p
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, p)
	}
	return true, nil
}

// SelectString parses a query value such as "90" and selects it
func (s *Selector) SelectString(v string) (bool, error) {
	p, err := models.ParsePeriod(v)
	if err != nil {
		return false, &api.ValidationError{Field: "period", Message: err.Error()}
	}
	return s.Select(p)
}

// OnChange registers fn to run on every change
func (s *Selector) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Options lists the selectable periods with the current one marked
func (s *Selector) Options() []Option {
	current := s.Current()
	opts := make([]Option, 0, len(models.Periods))
	for _, p := range models.Periods {
		opts = append(opts, Option{Period: p, Label: p.Label(), Active: p == current})
	}
	return opts
}
