package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
	"decisiondash/internal/services/storage"
	"decisiondash/internal/testutil"
)

func signIn(t *testing.T, a *App) {
	t.Helper()
	res, err := a.Client.Login(context.Background(), api.Credentials{Email: testutil.FakeEmail, Password: testutil.FakePassword})
	require.NoError(t, err)
	require.NoError(t, a.SignIn(res))
}

func TestNew_RestoresSession(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	cfg := testutil.TestConfig(t, fake.URL)

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	assert.False(t, a.Session.Authenticated())
	signIn(t, a)

	b, err := New(cfg, Options{})
	require.NoError(t, err)
	assert.True(t, b.Session.Authenticated())
	assert.Equal(t, testutil.FakeBusiness, b.Session.User().DisplayName())
}

func TestNew_EncryptedStore(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	cfg := testutil.TestConfig(t, fake.URL)

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	signIn(t, a)
	require.NoError(t, a.Store.EnableEncryption("correct horse"))

	_, err = New(cfg, Options{})
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	_, err = New(cfg, Options{Passphrase: "wrong horse"})
	assert.ErrorIs(t, err, storage.ErrWrongPassphrase)

	cfg.SessionPassphrase = "correct horse"
	b, err := New(cfg, Options{})
	require.NoError(t, err)
	assert.True(t, b.Session.Authenticated())
}

func TestDashboard_SelectsAndLoads(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	a, err := New(testutil.TestConfig(t, fake.URL), Options{})
	require.NoError(t, err)
	signIn(t, a)

	view, err := a.Dashboard(context.Background(), models.PeriodQuarter)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodQuarter, view.Period)
	assert.Equal(t, models.PeriodQuarter, a.Selector.Current())
	for _, o := range view.Periods {
		assert.Equal(t, o.Period == models.PeriodQuarter, o.Active, "period %d", o.Period)
	}
	assert.True(t, view.Cards.OK())
	assert.Equal(t, "$5,000.00", view.Cards.Data[0].Value)

	vm, err := a.ViewModel(context.Background(), models.PeriodQuarter)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodQuarter, vm.Period)
	assert.Equal(t, 1, fake.Hits("/api/analytics/key-metrics"))
}

func TestDashboard_InvalidPeriod(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	a, err := New(testutil.TestConfig(t, fake.URL), Options{})
	require.NoError(t, err)
	signIn(t, a)

	_, err = a.Dashboard(context.Background(), models.Period(45))
	require.Error(t, err)
	assert.Equal(t, 0, fake.Hits("/api/analytics/key-metrics"))
}

func TestLogout_ClearsEverything(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	a, err := New(testutil.TestConfig(t, fake.URL), Options{})
	require.NoError(t, err)
	signIn(t, a)

	_, err = a.Dashboard(context.Background(), models.PeriodMonth)
	require.NoError(t, err)
	require.NotNil(t, a.Aggregator.Current())

	require.NoError(t, a.Logout())
	assert.False(t, a.Session.Authenticated())
	assert.Nil(t, a.Aggregator.Current())
	assert.Empty(t, a.Uploads.Outcomes())
}

func TestDashboard_AuthErrorClearsSession(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	a, err := New(testutil.TestConfig(t, fake.URL), Options{})
	require.NoError(t, err)
	signIn(t, a)
	fake.Revoke()

	_, err = a.Dashboard(context.Background(), models.PeriodMonth)
	assert.True(t, api.IsAuth(err))
	assert.False(t, a.Session.Authenticated())
}
