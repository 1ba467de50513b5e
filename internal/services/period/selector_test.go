package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
)

func TestNewSelectorDefaults(t *testing.T) {
	assert.Equal(t, models.PeriodMonth, NewSelector(0).Current())
	assert.Equal(t, models.PeriodMonth, NewSelector(models.Period(14)).Current())
	assert.Equal(t, models.PeriodYear, NewSelector(models.PeriodYear).Current())
}

func TestSelectNotifiesOnChangeOnly(t *testing.T) {
	s := NewSelector(models.PeriodMonth)

	var calls [][2]models.Period
	s.OnChange(func(prev, next models.Period) {
		calls = append(calls, [2]models.Period{prev, next})
	})

	changed, err := s.Select(models.PeriodMonth)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, calls)

	changed, err = s.Select(models.PeriodQuarter)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, [][2]models.Period{{models.PeriodMonth, models.PeriodQuarter}}, calls)
	assert.Equal(t, models.PeriodQuarter, s.Current())
}

func TestSelectRejectsUnsupported(t *testing.T) {
	s := NewSelector(models.PeriodWeek)

	_, err := s.Select(models.Period(14))
	assert.True(t, api.IsValidation(err))

	_, err = s.SelectString("abc")
	assert.True(t, api.IsValidation(err))

	assert.Equal(t, models.PeriodWeek, s.Current())

	changed, err := s.SelectString(" 365 ")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PeriodYear, s.Current())
}

func TestOptionsMarkExactlyOneActive(t *testing.T) {
	s := NewSelector(models.PeriodQuarter)
	opts := s.Options()
	require.Len(t, opts, 4)

	active := 0
	for _, o := range opts {
		if o.Active {
			active++
			assert.Equal(t, models.PeriodQuarter, o.Period)
			assert.Equal(t, "90 Days", o.Label)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, "1 Year", opts[3].Label)
}
