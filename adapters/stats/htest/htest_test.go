package htest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ephysval/domain/core"
	"ephysval/domain/observation"
	"ephysval/domain/stats"
	"ephysval/domain/units"
)

func meansObservation(mean, se float64, n int) *observation.Validated {
	s := units.New(se, units.Ohm)
	return &observation.Validated{
		Mean:          units.New(mean, units.Ohm),
		StandardError: &s,
		SampleSize:    n,
		Units:         units.Ohm,
	}
}

func mediansObservation(values ...float64) *observation.Validated {
	return &observation.Validated{
		SampleSize: len(values),
		Units:      units.Ohm,
		RawData:    units.NewSeries(values, units.Ohm),
	}
}

func TestAboutMeans(t *testing.T) {
	tests := []struct {
		name         string
		t            float64
		level        stats.ConfidenceLevel
		wantCritical float64
		wantP        float64
		wantReject   bool
	}{
		{name: "t=2 at 95%", t: 2, level: stats.Confidence95, wantCritical: 2.7764, wantP: 0.1161, wantReject: false},
		{name: "t=2 at 90%", t: 2, level: stats.Confidence90, wantCritical: 2.1318, wantP: 0.1161, wantReject: false},
		{name: "t=3 at 95%", t: 3, level: stats.Confidence95, wantCritical: 2.7764, wantP: 0.0400, wantReject: true},
		{name: "t=-3 at 99%", t: -3, level: stats.Confidence99, wantCritical: 4.6041, wantP: 0.0400, wantReject: false},
		{name: "zero level uses default", t: 3, level: 0, wantCritical: 2.7764, wantP: 0.0400, wantReject: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := meansObservation(120e6, 10e6, 5)
			res, err := AboutMeans(obs, units.New(100, units.Megaohm), tt.t, tt.level)
			require.NoError(t, err)

			assert.Equal(t, tt.wantReject, res.Rejected)
			assert.InDelta(t, tt.wantCritical, res.Statistics["critical_value"], 1e-3)
			assert.InDelta(t, tt.wantP, res.Statistics["p_value"], 1e-3)
			assert.Equal(t, 4.0, res.Statistics["degrees_of_freedom"])
			assert.InDelta(t, 100e6, res.Statistics["null_value"], 1e-3)
			assert.Contains(t, res.Outcome, "Hypothesis test about means")
			if tt.wantReject {
				assert.Contains(t, res.Outcome, "differs significantly")
			} else {
				assert.Contains(t, res.Outcome, "statistically indistinguishable")
			}
		})
	}
}

func TestAboutMeans_Errors(t *testing.T) {
	obs := meansObservation(120, 10, 5)
	obs.StandardError = nil
	_, err := AboutMeans(obs, units.New(100, units.Ohm), 2, stats.Confidence95)
	assert.ErrorIs(t, err, core.ErrContractViolation)

	_, err = AboutMeans(meansObservation(120, 10, 1), units.New(100, units.Ohm), 2, stats.Confidence95)
	assert.ErrorIs(t, err, core.ErrContractViolation)

	_, err = AboutMeans(meansObservation(120, 10, 5), units.New(100, units.Ohm), 2, stats.ConfidenceLevel(80))
	assert.ErrorIs(t, err, core.ErrContractViolation)

	_, err = AboutMeans(meansObservation(120, 10, 5), units.New(100, units.Ohm), math.NaN(), stats.Confidence95)
	assert.ErrorIs(t, err, core.ErrUndefinedStatistic)
}

func TestAboutMedians(t *testing.T) {
	obs := mediansObservation(10, 12, 9, 15, 11)

	res, err := AboutMedians(obs, units.New(12, units.Ohm), 1.0, stats.Confidence95)
	require.NoError(t, err)

	assert.False(t, res.Rejected)
	assert.Equal(t, 3.0, res.Statistics["s_plus"])
	assert.Equal(t, 1.0, res.Statistics["s_minus"])
	assert.Equal(t, 4.0, res.Statistics["n_u"])
	assert.Equal(t, 11.0, res.Statistics["sample_statistic"])
	assert.InDelta(t, 1.96, res.Statistics["critical_value"], 1e-2)
	assert.InDelta(t, 0.3173, res.Statistics["p_value"], 1e-3)
	assert.InDelta(t, 0.625, res.Statistics["exact_p_value"], 1e-9)
	assert.Contains(t, res.Outcome, "1 tied with the null value")
}

func TestAboutMedians_Rejects(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	obs := mediansObservation(values...)
	median := units.New(9.5, units.Ohm)
	obs.Median = &median

	// every value below a null of 100
	z := (20 - 10) / math.Sqrt(5)
	res, err := AboutMedians(obs, units.New(100, units.Ohm), z, stats.Confidence99)
	require.NoError(t, err)

	assert.True(t, res.Rejected)
	assert.Equal(t, 9.5, res.Statistics["sample_statistic"])
	assert.InDelta(t, 2*math.Pow(0.5, 20), res.Statistics["exact_p_value"], 1e-12)
	assert.Contains(t, res.Outcome, "differs significantly")
}

func TestAboutMedians_Undefined(t *testing.T) {
	obs := mediansObservation(5, 5, 5)
	_, err := AboutMedians(obs, units.New(5, units.Ohm), math.NaN(), stats.Confidence95)
	assert.ErrorIs(t, err, core.ErrUndefinedStatistic)
}

func TestForType(t *testing.T) {
	res, err := ForType(stats.ScoreTypeT, meansObservation(120, 10, 5), units.New(100, units.Ohm), 2, stats.Confidence95)
	require.NoError(t, err)
	assert.Contains(t, res.Outcome, "about means")

	res, err = ForType(stats.ScoreTypeZSign, mediansObservation(10, 12, 9, 15, 11), units.New(12, units.Ohm), 1, stats.Confidence95)
	require.NoError(t, err)
	assert.Contains(t, res.Outcome, "about medians")

	_, err = ForType(stats.ScoreTypeNone, nil, units.Quantity{}, 0, stats.Confidence95)
	assert.ErrorIs(t, err, core.ErrContractViolation)
}
