package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisiondash/internal/testutil"
)

// setupCLI points configuration at a fake API and a private data directory
func setupCLI(t *testing.T) *testutil.FakeAPI {
	t.Helper()

	fake := testutil.NewFakeAPI(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DASH_CONFIG", "")
	t.Setenv("DASH_API_URL", fake.URL)
	t.Setenv("DASH_DATA_DIR", t.TempDir())
	t.Setenv("DASH_SESSION_PASSPHRASE", "")
	return fake
}

// run executes one dashctl invocation with stdin as piped input
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, err := run(t, testutil.FakePassword+"\n", "login", "--email", testutil.FakeEmail)
	require.NoError(t, err, out)
	require.Contains(t, out, "Signed in as "+testutil.FakeBusiness)
}

func TestLogin_StoresSession(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, testutil.FakeBusiness)
	assert.Contains(t, out, testutil.FakeEmail)
}

func TestLogin_WrongPassword(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "nope\n", "login", "--email", testutil.FakeEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")

	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestLogin_RequiresPassword(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "", "login", "--email", testutil.FakeEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password")
}

func TestRegister(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "s3cret-pass\n", "register", "--email", "new@example.com", "--business", "Initech")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Registered and signed in as Initech")

	_, err = run(t, "s3cret-pass\n", "register", "--email", testutil.FakeEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")
}

func TestLogout(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = run(t, "", "dashboard")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestCommandsRequireSession(t *testing.T) {
	setupCLI(t)

	for _, args := range [][]string{
		{"whoami"},
		{"dashboard"},
		{"report", "latest"},
		{"report", "history"},
		{"upload", "transactions", "missing.csv"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, "", args...)
			assert.ErrorIs(t, err, errNotSignedIn)
		})
	}
}

func TestDashboard(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := run(t, "", "dashboard", "--period", "90")
	require.NoError(t, err)
	for _, want := range []string{
		"Key Metrics", "Total Income", "$5,000.00",
		"Revenue Trends", "Spending by Category", "Rent",
		"Budget vs Actual", "Recent Transactions", "Client payment",
		"90 Days",
	} {
		assert.Contains(t, out, want)
	}
}

func TestDashboard_InvalidPeriod(t *testing.T) {
	setupCLI(t)
	login(t)

	_, err := run(t, "", "dashboard", "--period", "45")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported period 45")
}

func TestDashboard_PartialFailure(t *testing.T) {
	fake := setupCLI(t)
	login(t)
	fake.Fail("/api/analytics/spending-by-category", 500)

	out, err := run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Spending by Category unavailable")
	assert.Contains(t, out, "$5,000.00")
	assert.Contains(t, out, "Recent Transactions")
}

func TestDashboard_AuthFailureSignsOut(t *testing.T) {
	fake := setupCLI(t)
	login(t)
	fake.Revoke()

	_, err := run(t, "", "dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")

	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestReports(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := run(t, "", "report", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "No report yet")

	out, err = run(t, "", "report", "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "Low Risk")
	assert.Contains(t, out, "Client concentration (Globex)")

	_, err = run(t, "", "report", "generate")
	require.NoError(t, err)

	out, err = run(t, "", "report", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Medium Risk")
	assert.Contains(t, lines[1], "Low Risk")

	out, err = run(t, "", "report", "trigger-weekly")
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly report email queued")
}

func TestReportGenerate_ServerError(t *testing.T) {
	fake := setupCLI(t)
	login(t)
	fake.Fail("/api/reports/generate", 500)

	_, err := run(t, "", "report", "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/reports/generate failed")
}

func TestUpload(t *testing.T) {
	fake := setupCLI(t)
	login(t)

	path := filepath.Join(t.TempDir(), "march.csv")
	csv := "amount,category,description,date,type\n12.50,Dining,Lunch,2025-03-01,expense\n900,Consulting,Invoice 7,2025-03-02,income\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0600))

	out, err := run(t, "", "upload", "transactions", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions")
	assert.Contains(t, out, "2 rows")
	assert.Equal(t, []string{"transactions/march.csv"}, fake.Uploads())
}

func TestUpload_Errors(t *testing.T) {
	fake := setupCLI(t)
	login(t)

	_, err := run(t, "", "upload", "receipts", "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown upload type")

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("amount,category\n"), 0600))
	_, err = run(t, "", "upload", "budgets", empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV file has no data rows")
	assert.Empty(t, fake.Uploads())
}

func TestEncryptDecrypt(t *testing.T) {
	setupCLI(t)
	login(t)

	out, err := run(t, "correct horse\n", "encrypt")
	require.NoError(t, err)
	assert.Contains(t, out, "Encrypted")

	// piped stdin cannot answer the passphrase prompt
	_, err = run(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encrypted")

	t.Setenv("DASH_SESSION_PASSPHRASE", "correct horse")
	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, testutil.FakeBusiness)

	_, err = run(t, "wrong horse\n", "decrypt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect passphrase")

	_, err = run(t, "correct horse\n", "decrypt")
	require.NoError(t, err)

	t.Setenv("DASH_SESSION_PASSPHRASE", "")
	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, testutil.FakeEmail)
}

func TestEncrypt_ShortPassphrase(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "short\n", "encrypt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: ")
}
