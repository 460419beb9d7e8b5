package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{})
	require.NoError(t, err)
	return e
}

func TestQuoteUrgentWithDistance(t *testing.T) {
	e := newTestEngine(t)
	// 2 km past the 3 km free radius at 500/km: 15000+1000=16000,
	// urgent adds 30%: 20800.
	b, err := e.Quote(model.ServiceElectricista, model.CategoryVisit, 5, model.UrgencyUrgent, 15000)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), b.BaseRate)
	assert.Equal(t, int64(1000), b.DistanceSurcharge)
	assert.Equal(t, int64(4800), b.UrgencySurcharge)
	assert.Equal(t, int64(20800), b.Total)
	assert.Equal(t, int64(4160), b.Commission)
	assert.Equal(t, int64(16640), b.Payout)
	assert.True(t, b.Consistent())
}

func TestQuoteWithinFreeRadius(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Quote(model.ServiceElectricista, model.CategoryVisit, 1.0, model.UrgencyNormal, 5000)
	require.NoError(t, err)
	assert.Zero(t, b.DistanceSurcharge)
	assert.Zero(t, b.UrgencySurcharge)
	assert.Equal(t, int64(5000), b.Total)
}

func TestQuoteUrgentNeverCheaper(t *testing.T) {
	e := newTestEngine(t)
	for _, rate := range []int64{1, 999, 4500, 15000, 123457} {
		for _, km := range []float64{0, 2.99, 3, 7.5, 42} {
			normal, err := e.Quote(model.ServicePlomero, model.CategorySimpleRepair, km, model.UrgencyNormal, rate)
			require.NoError(t, err)
			urgent, err := e.Quote(model.ServicePlomero, model.CategorySimpleRepair, km, model.UrgencyUrgent, rate)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, urgent.Total, normal.Total, "rate=%d km=%v", rate, km)
			assert.True(t, normal.Consistent())
			assert.True(t, urgent.Consistent())
		}
	}
}

func TestQuoteCategoryFactor(t *testing.T) {
	e := newTestEngine(t)
	visit, err := e.Quote(model.ServiceGasista, model.CategoryVisit, 0, model.UrgencyNormal, 5500)
	require.NoError(t, err)
	install, err := e.Quote(model.ServiceGasista, model.CategoryInstallation, 0, model.UrgencyNormal, 5500)
	require.NoError(t, err)
	assert.Equal(t, int64(5500), visit.Total)
	assert.Equal(t, int64(11000), install.Total)
}

func TestQuoteInvalidInput(t *testing.T) {
	e := newTestEngine(t)
	cases := []struct {
		name     string
		service  model.ServiceType
		category model.Category
		km       float64
		urgency  model.Urgency
		rate     int64
	}{
		{"negative distance", model.ServicePlomero, model.CategoryVisit, -1, model.UrgencyNormal, 5000},
		{"zero rate", model.ServicePlomero, model.CategoryVisit, 1, model.UrgencyNormal, 0},
		{"unknown service", "brujo", model.CategoryVisit, 1, model.UrgencyNormal, 5000},
		{"unknown category", model.ServicePlomero, "exorcismo", 1, model.UrgencyNormal, 5000},
		{"unknown urgency", model.ServicePlomero, model.CategoryVisit, 1, "ya", 5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Quote(tc.service, tc.category, tc.km, tc.urgency, tc.rate)
			assert.True(t, errors.Is(err, errs.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestQuoteRoundHalfEven(t *testing.T) {
	e, err := NewEngine(Config{CommissionRate: 0.5, CategoryFactors: map[model.Category]float64{model.CategoryVisit: 1}})
	require.NoError(t, err)
	// 50% of an odd total lands on .5 and must round to the even unit.
	b, err := e.Quote(model.ServicePlomero, model.CategoryVisit, 0, model.UrgencyNormal, 4999)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), b.Commission)
	assert.Equal(t, int64(2499), b.Payout)
	assert.True(t, b.Consistent())
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	_, err := NewEngine(Config{CommissionRate: 1.5})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput), "got %v", err)
}
