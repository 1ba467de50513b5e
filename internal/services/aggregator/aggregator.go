// Package aggregator loads the five dashboard sections concurrently and
// publishes them as a single view model per period.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
)

// RecentTransactionLimit bounds the recent activity feed
const RecentTransactionLimit = 10

// ErrSuperseded is returned to callers whose load was overtaken by a newer one
var ErrSuperseded = errors.New("dashboard load superseded by a newer request")

// Source fetches the raw analytics sections
type Source interface {
	KeyMetrics(ctx context.Context) (models.Metrics, error)
	RevenueTrends(ctx context.Context, p models.Period) ([]models.RevenuePoint, error)
	SpendingByCategory(ctx context.Context, p models.Period) ([]models.CategorySpend, error)
	BudgetVsActual(ctx context.Context) ([]models.BudgetLine, error)
	RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
}

// Session is cleared when any fetch is rejected for authentication
type Session interface {
	Clear() error
}

// flight is one in-progress aggregate load
type flight struct {
	period models.Period
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}

	// set before done is closed
	vm  *models.ViewModel
	err error
}

// Aggregator owns the current view model. Only the newest generation may commit.
type Aggregator struct {
	source  Source
	session Session
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	flight     *flight
	current    *models.ViewModel
}

// New creates an aggregator reading from source. session may be nil.
func New(source Source, session Session) *Aggregator {
	return &Aggregator{
		source:  source,
		session: session,
		now:     time.Now,
	}
}

// Current returns the last committed view model, or nil
func (a *Aggregator) Current() *models.ViewModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Generation returns the newest generation started
func (a *Aggregator) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Load fetches all sections for p and waits for them to settle. A call made
// while a load for the same period is running joins it instead of issuing
// new requests. A call for a different period cancels the running load,
// whose callers then receive ErrSuperseded.
//
// Section failures are reported inside the view model; the returned error is
// non-nil only for an invalid period, an authentication failure (after the
// session has been cleared), supersession, or ctx ending while waiting.
func (a *Aggregator) Load(ctx context.Context, p models.Period) (*models.ViewModel, error) {
	if !p.Valid() {
		return nil, &api.ValidationError{Field: "period", Message: fmt.Sprintf("unsupported period %d", int(p))}
	}

	a.mu.Lock()
	f := a.flight
	if f == nil || f.period != p || f.gen != a.generation {
		f = a.startLocked(p)
	}
	a.mu.Unlock()

	select {
	case <-f.done:
		return f.vm, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Refresh starts a new generation for p without waiting. Any running load is superseded.
func (a *Aggregator) Refresh(p models.Period) error {
	if !p.Valid() {
		return &api.ValidationError{Field: "period", Message: fmt.Sprintf("unsupported period %d", int(p))}
	}
	a.mu.Lock()
	a.startLocked(p)
	a.mu.Unlock()
	return nil
}

// Invalidate supersedes any running load so its results are discarded
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidateLocked()
}

// Reset invalidates and drops the committed view model, e.g. on logout
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidateLocked()
	a.current = nil
}

// Watch reloads whenever the selector changes period
func (a *Aggregator) Watch(sel interface {
	OnChange(func(prev, next models.Period))
}) {
	sel.OnChange(func(_, next models.Period) {
		if err := a.Refresh(next); err != nil {
			log.Printf("Dashboard refresh for period %s failed: %v", next, err)
		}
	})
}

func (a *Aggregator) invalidateLocked() {
	a.generation++
	if a.flight != nil {
		a.flight.cancel()
		a.flight = nil
	}
}

// startLocked begins a new generation. Caller holds a.mu.
func (a *Aggregator) startLocked(p models.Period) *flight {
	if a.flight != nil {
		a.flight.cancel()
	}
	a.generation++

	// The flight is shared by every joined caller, so no caller's context owns it
	ctx, cancel := context.WithCancel(context.Background())
	f := &flight{
		period: p,
		gen:    a.generation,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	a.flight = f
	go a.run(ctx, f)
	return f
}

func (a *Aggregator) run(ctx context.Context, f *flight) {
	defer close(f.done)
	defer f.cancel()

	start := a.now()
	vm, authErr := a.fetchAll(ctx, f)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.flight == f {
		a.flight = nil
	}

	// A stale flight has no say over session or view model, even on auth failure
	if f.gen != a.generation {
		f.err = ErrSuperseded
		log.Printf("Dashboard load gen=%d period=%s discarded (current gen=%d)", f.gen, f.period, a.generation)
		return
	}

	if authErr != nil {
		a.current = nil
		f.err = authErr
		log.Printf("Dashboard load gen=%d period=%s rejected: %v", f.gen, f.period, authErr)
		if a.session != nil {
			if cerr := a.session.Clear(); cerr != nil {
				log.Printf("Error clearing session: %v", cerr)
			}
		}
		return
	}

	a.current = vm
	f.vm = vm
	if failed := vm.Failed(); len(failed) > 0 {
		log.Printf("Dashboard load gen=%d period=%s completed in %v with unavailable sections: %v",
			f.gen, f.period, a.now().Sub(start), failed)
	} else {
		log.Printf("Dashboard load gen=%d period=%s completed in %v", f.gen, f.period, a.now().Sub(start))
	}
}

// fetchAll runs the five fetches concurrently and waits for all of them.
// The first AuthError cancels the remaining fetches; run decides whether it
// clears the session.
func (a *Aggregator) fetchAll(ctx context.Context, f *flight) (*models.ViewModel, error) {
	var (
		wg       sync.WaitGroup
		authOnce sync.Once
		authErr  error

		metrics  models.Section[models.Metrics]
		revenue  models.Section[[]models.RevenuePoint]
		spending models.Section[[]models.CategorySpend]
		budgets  models.Section[[]models.BudgetLine]
		recent   models.Section[[]models.Transaction]
	)

	checkAuth := func(err error) {
		var ae *api.AuthError
		if !errors.As(err, &ae) {
			return
		}
		authOnce.Do(func() {
			authErr = err
			f.cancel()
		})
	}

	wg.Add(5)
	go func() {
		defer wg.Done()
		m, err := a.source.KeyMetrics(ctx)
		checkAuth(err)
		metrics = models.Settle(m, err)
	}()
	go func() {
		defer wg.Done()
		pts, err := a.source.RevenueTrends(ctx, f.period)
		checkAuth(err)
		revenue = models.Settle(normalizeRevenue(pts), err)
	}()
	go func() {
		defer wg.Done()
		cats, err := a.source.SpendingByCategory(ctx, f.period)
		checkAuth(err)
		spending = models.Settle(cats, err)
	}()
	go func() {
		defer wg.Done()
		lines, err := a.source.BudgetVsActual(ctx)
		checkAuth(err)
		budgets = models.Settle(lines, err)
	}()
	go func() {
		defer wg.Done()
		txs, err := a.source.RecentTransactions(ctx, RecentTransactionLimit)
		checkAuth(err)
		recent = models.Settle(normalizeTransactions(txs), err)
	}()
	wg.Wait()

	if authErr != nil {
		return nil, authErr
	}

	return &models.ViewModel{
		Period:             f.period,
		Generation:         f.gen,
		LoadID:             uuid.NewString(),
		LoadedAt:           a.now(),
		Metrics:            metrics,
		RevenueTrends:      revenue,
		SpendingByCategory: spending,
		BudgetVsActual:     budgets,
		RecentTransactions: recent,
	}, nil
}

// normalizeRevenue orders points chronologically; unparseable dates sort first
func normalizeRevenue(pts []models.RevenuePoint) []models.RevenuePoint {
	out := make([]models.RevenuePoint, len(pts))
	copy(out, pts)
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := models.ParseISODate(out[i].Date)
		tj, _ := models.ParseISODate(out[j].Date)
		return ti.Before(tj)
	})
	return out
}

// normalizeTransactions orders most recent first and keeps the newest ten
func normalizeTransactions(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	copy(out, txs)
	models.SortRecentFirst(out)
	if len(out) > RecentTransactionLimit {
		out = out[:RecentTransactionLimit]
	}
	return out
}
