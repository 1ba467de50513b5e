package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"decisiondash/internal/models"
	"decisiondash/internal/testutil"
)

// setupTestServer wires the application against a fake API and returns both
func setupTestServer(t *testing.T) (*testutil.TestServer, *testutil.FakeAPI) {
	t.Helper()

	fake := testutil.NewFakeAPI(t)
	if err := SetupDependencies(testutil.TestConfig(t, fake.URL)); err != nil {
		t.Fatalf("Failed to setup dependencies: %v", err)
	}
	if renderer == nil {
		t.Fatalf("Templates failed to load")
	}
	return testutil.NewTestServer(t, SetupRouter()), fake
}

// signIn logs in with the fake API's credentials
func signIn(t *testing.T, ts *testutil.TestServer) {
	t.Helper()
	resp := ts.POSTForm("/login", map[string]string{
		"email":    testutil.FakeEmail,
		"password": testutil.FakePassword,
	})
	testutil.AssertResponse(t, resp).RedirectsTo("/dashboard")
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := ts.GET("/api/health")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeJSON().
		ContainsAll(`"status":"ok"`, `"authenticated":false`)
}

func TestRootRedirect(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := ts.GET("/")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("Expected status %d, got %d", http.StatusTemporaryRedirect, resp.StatusCode)
	}
	if location := resp.Header.Get("Location"); location != "/dashboard" {
		t.Errorf("Expected redirect to /dashboard, got %s", location)
	}
}

func TestProtectedPagesRequireSession(t *testing.T) {
	ts, fake := setupTestServer(t)

	for _, path := range []string{"/dashboard", "/reports", "/upload", "/dashboard/charts/data/revenue"} {
		t.Run(path, func(t *testing.T) {
			resp := ts.GET(path)
			testutil.AssertResponse(t, resp).RedirectsTo("/login")
		})
	}

	resp := ts.HTMX("/dashboard/content?period=7")
	testutil.AssertResponse(t, resp).
		StatusOK().
		Header("HX-Redirect", "/login")

	if hits := fake.Hits("/api/analytics/key-metrics"); hits != 0 {
		t.Errorf("Expected no analytics requests while signed out, got %d", hits)
	}
}

func TestLoginPage(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := ts.GET("/login")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeHTML().
		ContainsAll("Sign In", `name="email"`, `name="password"`).
		NotContains("Sign out")
}

func TestLoginErrors(t *testing.T) {
	ts, fake := setupTestServer(t)

	tests := []struct {
		name     string
		form     map[string]string
		status   int
		contains string
	}{
		{"missing email", map[string]string{"password": "x"}, http.StatusBadRequest, "Email is required"},
		{"missing password", map[string]string{"email": testutil.FakeEmail}, http.StatusBadRequest, "Password is required"},
		{"wrong password", map[string]string{"email": testutil.FakeEmail, "password": "nope"}, http.StatusUnauthorized, "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.POSTForm("/login", tt.form)
			testutil.AssertResponse(t, resp).
				Status(tt.status).
				ContentTypeHTML().
				Contains(tt.contains)
		})
	}

	// Only the wrong password reached the server
	if hits := fake.Hits("/api/auth/login"); hits != 1 {
		t.Errorf("Expected 1 login request, got %d", hits)
	}
	if application.Session.Authenticated() {
		t.Error("Expected no session after failed logins")
	}
}

func TestRegister(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := ts.POSTForm("/register", map[string]string{
		"email":        testutil.FakeEmail,
		"password":     "password123",
		"businessName": "Dupe Co",
	})
	testutil.AssertResponse(t, resp).
		Status(http.StatusBadGateway).
		ContainsAll("Email already registered", "Dupe Co")

	resp = ts.POSTForm("/register", map[string]string{
		"email":        "new@example.com",
		"password":     "password123",
		"businessName": "Newco",
	})
	testutil.AssertResponse(t, resp).RedirectsTo("/dashboard")

	user := application.Session.User()
	if user == nil || user.BusinessName != "Newco" {
		t.Fatalf("Expected session user Newco, got %+v", user)
	}
}

func TestDashboard(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeHTML().
		ContainsAll(
			"Dashboard",
			testutil.FakeBusiness,
			"Total Income",
			"$5,000.00",
			"↑ 12.5%",
			"36% savings rate",
			"Revenue Trends",
			"Spending by Category",
			"Budget vs Actual",
			"$60.00 over",
			"Recent Transactions",
		).
		NotContains("unavailable")
}

func TestDashboardShowsTenRecentTransactions(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/dashboard")
	// The fake returns 12 rows, 3 of them income
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains("Purchase 12").
		NotContains("Purchase 2<").
		Count("+$1,200.00", 2)
}

func TestDashboardPeriodSelection(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/dashboard?period=90")
	testutil.AssertResponse(t, resp).StatusOK()

	if got := application.Selector.Current(); got != models.PeriodQuarter {
		t.Errorf("Expected selected period 90, got %d", got)
	}
	vm := application.Aggregator.Current()
	if vm == nil || vm.Period != models.PeriodQuarter {
		t.Fatalf("Expected committed view model for 90 days, got %+v", vm)
	}

	resp = ts.HTMX("/dashboard/content?period=7")
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains(`aria-selected="true">7 Days`).
		NotContains("<html")
}

func TestDashboardInvalidPeriod(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/dashboard?period=14")
	testutil.AssertResponse(t, resp).Status(http.StatusBadRequest)

	if got := application.Selector.Current(); got != models.DefaultPeriod {
		t.Errorf("Invalid period changed the selection to %d", got)
	}
}

func TestDashboardPartialFailure(t *testing.T) {
	ts, fake := setupTestServer(t)
	signIn(t, ts)
	fake.Fail("/api/analytics/spending-by-category", http.StatusInternalServerError)

	resp := ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContainsAll(
			"Spending by category unavailable",
			"/api/analytics/spending-by-category failed",
			"Total Income",
			"Revenue Trends",
		).
		Count("section-unavailable", 1)

	resp = ts.GET("/dashboard/charts/data/spending")
	testutil.AssertResponse(t, resp).
		Status(http.StatusBadGateway).
		ContentTypeJSON()
}

func TestDashboardAuthFailureSignsOut(t *testing.T) {
	ts, fake := setupTestServer(t)
	signIn(t, ts)
	fake.Revoke()

	resp := ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).RedirectsTo("/login")

	if application.Session.Authenticated() {
		t.Fatal("Expected session to be cleared after a 401")
	}
	if application.Aggregator.Current() != nil {
		t.Error("Expected committed view model to be dropped")
	}

	before := fake.Hits("/api/analytics/key-metrics")
	resp = ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).RedirectsTo("/login")
	if after := fake.Hits("/api/analytics/key-metrics"); after != before {
		t.Errorf("Expected no further API calls after sign-out, got %d more", after-before)
	}
}

func TestLogout(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).StatusOK()

	resp = ts.POSTForm("/logout", nil)
	testutil.AssertResponse(t, resp).RedirectsTo("/login")

	resp = ts.GET("/reports")
	testutil.AssertResponse(t, resp).RedirectsTo("/login")

	if application.Aggregator.Current() != nil {
		t.Error("Expected dashboard data to be cleared on logout")
	}
}

func TestDashboardChartData(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	tests := []struct {
		chart  string
		period string
		traces int
		points int
	}{
		{"revenue", "7", 3, 1},
		{"revenue", "90", 3, 12},
		{"spending", "30", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.chart+"-"+tt.period, func(t *testing.T) {
			resp := ts.GET("/dashboard/charts/data/" + tt.chart + "?period=" + tt.period)
			body := testutil.AssertResponse(t, resp).
				StatusOK().
				ContentTypeJSON().
				Body()

			var chart struct {
				Data []struct {
					X []interface{} `json:"x"`
				} `json:"data"`
			}
			if err := json.Unmarshal([]byte(body), &chart); err != nil {
				t.Fatalf("Invalid JSON for chart %s: %v", tt.chart, err)
			}
			if len(chart.Data) != tt.traces {
				t.Fatalf("Expected %d traces, got %d", tt.traces, len(chart.Data))
			}
			if len(chart.Data[0].X) != tt.points {
				t.Errorf("Expected %d points, got %d", tt.points, len(chart.Data[0].X))
			}
		})
	}

	resp := ts.GET("/dashboard/charts/data/pie")
	testutil.AssertResponse(t, resp).Status(http.StatusNotFound)
}

func TestReportRoundTrip(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/reports")
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains("No report yet")

	resp = ts.POST("/reports/generate", "application/x-www-form-urlencoded", nil)
	testutil.AssertResponse(t, resp).RedirectsTo("/reports")

	resp = ts.GET("/reports")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContainsAll("Low Risk", "Client concentration", "Globex", "Unused subscriptions", "$11,168.00", "$87.25").
		NotContains("No report yet")

	resp = ts.POST("/reports/generate", "application/x-www-form-urlencoded", nil)
	testutil.AssertResponse(t, resp).RedirectsTo("/reports")

	resp = ts.GET("/reports")
	testutil.AssertResponse(t, resp).Contains("Medium Risk")

	resp = ts.HTMX("/reports/history")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContainsAll("Low Risk", "Medium Risk")
}

func TestReportGenerateFailure(t *testing.T) {
	ts, fake := setupTestServer(t)
	signIn(t, ts)
	fake.Fail("/api/reports/generate", http.StatusInternalServerError)

	resp := ts.POST("/reports/generate", "application/x-www-form-urlencoded", nil)
	testutil.AssertResponse(t, resp).
		Status(http.StatusBadGateway).
		Contains("/api/reports/generate failed")
}

func TestTriggerWeeklyReport(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.POST("/reports/trigger-weekly", "application/x-www-form-urlencoded", nil)
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains("Weekly report email queued")
}

func TestUpload(t *testing.T) {
	ts, fake := setupTestServer(t)
	signIn(t, ts)

	resp := ts.GET("/upload")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContainsAll("Upload Data", "Transactions", "Work Requests", "amount, category, description, date, type")

	resp = ts.POSTFile("/upload/transactions", "file", "march.csv", "amount,category\n10,Food\n20,Rent\n")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContainsAll("Imported 2 transactions", "2 rows", "march.csv")

	uploads := fake.Uploads()
	if len(uploads) != 1 || uploads[0] != "transactions/march.csv" {
		t.Errorf("Expected one transactions upload, got %v", uploads)
	}

	resp = ts.GET("/upload")
	testutil.AssertResponse(t, resp).Contains("Imported 2 transactions")
}

func TestUploadValidation(t *testing.T) {
	ts, fake := setupTestServer(t)
	signIn(t, ts)

	resp := ts.POSTForm("/upload/budgets", nil)
	testutil.AssertResponse(t, resp).
		Status(http.StatusBadRequest).
		Contains("Please select a file")

	resp = ts.POSTFile("/upload/bogus", "file", "x.csv", "a\n1\n")
	testutil.AssertResponse(t, resp).
		Status(http.StatusBadRequest).
		Contains("Unknown upload type: bogus")

	if hits := fake.Hits("/api/data/upload/budgets") + fake.Hits("/api/data/upload/bogus"); hits != 0 {
		t.Errorf("Expected invalid uploads to stay local, got %d requests", hits)
	}
}

func TestUploadServerError(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.POSTFile("/upload/goals", "file", "empty.csv", "name,target_amount\n")
	testutil.AssertResponse(t, resp).
		Status(http.StatusBadGateway).
		Contains("CSV file has no data rows")
}

func TestStorageEncryption(t *testing.T) {
	ts, _ := setupTestServer(t)
	signIn(t, ts)

	resp := ts.POSTForm("/api/storage/encrypt", map[string]string{"passphrase": "correct horse"})
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains(`"encrypted":true`)

	// The session survives and is still written through the store
	resp = ts.GET("/dashboard")
	testutil.AssertResponse(t, resp).StatusOK()

	resp = ts.POSTForm("/api/storage/decrypt", map[string]string{"passphrase": "wrong horse"})
	testutil.AssertResponse(t, resp).Status(http.StatusForbidden)

	resp = ts.POSTForm("/api/storage/decrypt", map[string]string{"passphrase": "correct horse"})
	testutil.AssertResponse(t, resp).
		StatusOK().
		Contains(`"encrypted":false`)
}
