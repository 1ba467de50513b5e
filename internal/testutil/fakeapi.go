package testutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"decisiondash/internal/models"
)

// Fake API credentials
const (
	FakeEmail    = "owner@example.com"
	FakePassword = "password123"
	FakeBusiness = "Acme Studio"
)

// FakeAPI is an in-memory analytics backend speaking the real wire format.
// Analytics data depends on the requested period so tests can tell loads apart.
type FakeAPI struct {
	Server *httptest.Server
	URL    string

	mu      sync.Mutex
	token   string
	revoked bool
	hits    map[string]int
	fail    map[string]int
	blocks  map[string]chan struct{}
	reports []models.Report
	uploads []string
}

// NewFakeAPI starts a fake backend that is closed when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		token:  "tok-" + uuid.NewString(),
		hits:   make(map[string]int),
		fail:   make(map[string]int),
		blocks: make(map[string]chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(f.control)
	r.Post("/api/auth/login", f.handleLogin)
	r.Post("/api/auth/register", f.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(f.requireToken)
		r.Get("/api/auth/profile", f.handleProfile)
		r.Get("/api/analytics/key-metrics", f.handleKeyMetrics)
		r.Get("/api/analytics/revenue-trends", f.handleRevenueTrends)
		r.Get("/api/analytics/spending-by-category", f.handleSpending)
		r.Get("/api/analytics/budget-vs-actual", f.handleBudgets)
		r.Get("/api/analytics/recent-transactions", f.handleRecentTransactions)
		r.Get("/api/reports/latest", f.handleLatestReport)
		r.Post("/api/reports/generate", f.handleGenerateReport)
		r.Get("/api/reports/history", f.handleReportHistory)
		r.Post("/api/reports/trigger-weekly", f.handleTriggerWeekly)
		r.Post("/api/data/upload/{type}", f.handleUpload)
	})

	f.Server = httptest.NewServer(r)
	f.URL = f.Server.URL
	t.Cleanup(func() {
		f.ReleaseAll()
		f.Server.Close()
	})
	return f
}

// Token returns the bearer token the fake accepts
func (f *FakeAPI) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// Revoke makes every authenticated endpoint answer 401
func (f *FakeAPI) Revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = true
}

// Fail makes path answer status with an error body until Recover is called
func (f *FakeAPI) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = status
}

// Recover clears a failure set by Fail
func (f *FakeAPI) Recover(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fail, path)
}

// Block holds requests to path until the returned release func is called
func (f *FakeAPI) Block(path string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.blocks[path] = ch
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		owned := f.blocks[path] == ch
		if owned {
			delete(f.blocks, path)
		}
		f.mu.Unlock()
		if owned {
			close(ch)
		}
	}
}

// ReleaseAll unblocks every blocked path
func (f *FakeAPI) ReleaseAll() {
	f.mu.Lock()
	blocks := f.blocks
	f.blocks = make(map[string]chan struct{})
	f.mu.Unlock()
	for _, ch := range blocks {
		close(ch)
	}
}

// Hits returns how many requests reached path
func (f *FakeAPI) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// Uploads returns the "type/filename" of every accepted upload
func (f *FakeAPI) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

// control counts, blocks and fails requests before routing
func (f *FakeAPI) control(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		f.mu.Lock()
		f.hits[path]++
		block := f.blocks[path]
		status := f.fail[path]
		f.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, fmt.Sprintf("%s failed", path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := !f.revoked && r.Header.Get("Authorization") == "Bearer "+f.token
		f.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Email != FakeEmail || body.Password != FakePassword {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	f.mu.Lock()
	f.revoked = false
	token := f.token
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  models.User{Email: FakeEmail, BusinessName: FakeBusiness},
	})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		BusinessName string `json:"businessName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Email == FakeEmail {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	f.mu.Lock()
	f.revoked = false
	token := f.token
	f.mu.Unlock()

	writeData(w, map[string]interface{}{
		"token": token,
		"user":  models.User{Email: body.Email, BusinessName: body.BusinessName},
	})
}

func (f *FakeAPI) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeData(w, models.User{Email: FakeEmail, BusinessName: FakeBusiness})
}

func (f *FakeAPI) handleKeyMetrics(w http.ResponseWriter, r *http.Request) {
	trend := 12.5
	down := -4.0
	writeData(w, models.Metrics{
		Income:              decimal.NewFromInt(5000),
		Expenses:            decimal.NewFromInt(3200),
		NetCashFlow:         decimal.NewFromInt(1800),
		SavingsRate:         decimal.NewFromInt(36),
		ActiveGoals:         3,
		ActiveSubscriptions: 5,
		IncomeTrend:         &trend,
		ExpensesTrend:       &down,
	})
}

// periodOf reads ?period=, defaulting to 30
func periodOf(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("period")); err == nil && n > 0 {
		return n
	}
	return 30
}

// handleRevenueTrends returns one point per week of the period (at most 12),
// newest first, so clients must sort them.
func (f *FakeAPI) handleRevenueTrends(w http.ResponseWriter, r *http.Request) {
	days := periodOf(r)
	n := min(max(days/7, 1), 12)
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	points := make([]models.RevenuePoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		income := decimal.NewFromInt(int64(1000 + 100*i))
		expense := decimal.NewFromInt(int64(700 + 50*i))
		points = append(points, models.RevenuePoint{
			Date:    start.AddDate(0, 0, 7*i).Format("2006-01-02"),
			Income:  income,
			Expense: expense,
			Net:     income.Sub(expense),
		})
	}
	writeData(w, points)
}

func (f *FakeAPI) handleSpending(w http.ResponseWriter, r *http.Request) {
	scale := decimal.NewFromInt(int64(periodOf(r))).Div(decimal.NewFromInt(30))
	writeData(w, []models.CategorySpend{
		{Category: "Rent", Total: decimal.NewFromInt(1500).Mul(scale).Round(2)},
		{Category: "Groceries", Total: decimal.NewFromInt(450).Mul(scale).Round(2)},
		{Category: "Dining", Total: decimal.NewFromInt(260).Mul(scale).Round(2)},
		{Category: "Software", Total: decimal.NewFromInt(90).Mul(scale).Round(2)},
	})
}

func (f *FakeAPI) handleBudgets(w http.ResponseWriter, r *http.Request) {
	line := func(cat string, budget, actual int64) models.BudgetLine {
		b, a := decimal.NewFromInt(budget), decimal.NewFromInt(actual)
		return models.BudgetLine{Category: cat, Budget: b, Actual: a, Remaining: b.Sub(a)}
	}
	writeData(w, []models.BudgetLine{
		line("Rent", 1500, 1500),
		line("Groceries", 500, 450),
		line("Dining", 200, 260),
	})
}

// handleRecentTransactions returns more rows than the dashboard shows
func (f *FakeAPI) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	txs := make([]models.Transaction, 0, 12)
	for i := 0; i < 12; i++ {
		tx := models.Transaction{
			Description: fmt.Sprintf("Purchase %d", i+1),
			Category:    "Groceries",
			Date:        time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Amount:      decimal.NewFromInt(int64(20 + i)),
			Type:        models.Expense,
		}
		if i%4 == 0 {
			tx.Description = fmt.Sprintf("Client payment %d", i+1)
			tx.Category = "Consulting"
			tx.Type = models.Income
			tx.Amount = decimal.NewFromInt(1200)
		}
		txs = append(txs, tx)
	}
	writeData(w, txs)
}

func (f *FakeAPI) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reports) == 0 {
		writeData(w, nil)
		return
	}
	writeData(w, f.reports[len(f.reports)-1])
}

func (f *FakeAPI) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	score := float64(35 + 20*len(f.reports))
	report := models.Report{
		ID:        uuid.NewString(),
		RiskScore: score,
		Warnings: []models.Finding{
			{RuleName: "Client concentration", ClientName: "Globex", Explanation: "62% of revenue comes from one client.", Action: "Diversify your client base."},
		},
		Opportunities: []models.Finding{
			{RuleName: "Unused subscriptions", Explanation: "Two subscriptions had no activity in 90 days.", Action: "Cancel them to save $48/month."},
		},
		Metrics: &models.ReportMetrics{
			TotalTransactions:    128,
			AvgTransactionAmount: decimal.RequireFromString("87.25"),
			TotalAmount:          decimal.NewFromInt(11168),
		},
		GeneratedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC).Add(time.Duration(len(f.reports)) * time.Hour),
	}
	f.reports = append(f.reports, report)
	writeData(w, report)
}

func (f *FakeAPI) handleReportHistory(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Report, 0, len(f.reports))
	for i := len(f.reports) - 1; i >= 0; i-- {
		out = append(out, f.reports[i])
	}
	writeData(w, out)
}

func (f *FakeAPI) handleTriggerWeekly(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Weekly report email queued"})
}

func (f *FakeAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	t := models.UploadType(chi.URLParam(r, "type"))
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid upload type")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	rows := 0
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			rows++
		}
	}
	if rows > 0 {
		rows-- // header
	}
	if rows == 0 {
		writeError(w, http.StatusUnprocessableEntity, "CSV file has no data rows")
		return
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, string(t)+"/"+header.Filename)
	f.mu.Unlock()

	zero := 0
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Imported %d %s", rows, strings.ToLower(t.Label())),
		"data": models.UploadResult{
			Success:   true,
			TotalRows: &rows,
			Inserted:  &rows,
			Skipped:   &zero,
		},
	})
}
