// Package htest turns a test statistic into a two-tailed accept/reject
// decision with a narrative and supporting numbers.
package htest

import (
	"fmt"
	"math"
	"strings"

	moremath "github.com/aclements/go-moremath/stats"
	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"ephysval/adapters/stats/scores"
	"ephysval/domain/core"
	"ephysval/domain/observation"
	"ephysval/domain/stats"
	"ephysval/domain/units"
)

// Result is the judgment of one hypothesis test.
type Result struct {
	Outcome    string
	Statistics stats.Statistics
	Rejected   bool
	Confidence stats.ConfidenceLevel
}

const (
	verdictIndistinguishable = "Fail to reject H0: the prediction is statistically indistinguishable from the observation."
	verdictDiffers           = "Reject H0: the prediction differs significantly from the observation."
)

// AboutMeans judges a one-sample t-statistic against Student's t with n-1
// degrees of freedom.
func AboutMeans(obs *observation.Validated, prediction units.Quantity, t float64, level stats.ConfidenceLevel) (*Result, error) {
	level, err := checkLevel(level)
	if err != nil {
		return nil, err
	}
	if obs == nil || obs.StandardError == nil {
		return nil, fmt.Errorf("%w: standard_error", core.ErrMissingStatistic)
	}
	if obs.SampleSize < 2 {
		return nil, fmt.Errorf("%w: t-test needs at least 2 samples, got %d", core.ErrContractViolation, obs.SampleSize)
	}
	if math.IsNaN(t) {
		return nil, fmt.Errorf("%w: t-statistic is NaN", core.ErrUndefinedStatistic)
	}
	null, err := prediction.ConvertTo(obs.Mean.Unit)
	if err != nil {
		return nil, fmt.Errorf("%w: prediction: %v", core.ErrContractViolation, err)
	}

	df := float64(obs.SampleSize - 1)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	alpha := level.Alpha()
	critical := dist.Quantile(1 - alpha/2)
	pValue := 2 * (1 - dist.CDF(math.Abs(t)))
	rejected := math.Abs(t) > critical

	var b strings.Builder
	fmt.Fprintf(&b, "Hypothesis test about means (two-tailed t-test, %s confidence).\n", level)
	fmt.Fprintf(&b, "H0: population mean = %s (model prediction); Ha: population mean != %s.\n", null, null)
	fmt.Fprintf(&b, "Sample mean = %s, standard error = %s, n = %d.\n", obs.Mean, *obs.StandardError, obs.SampleSize)
	fmt.Fprintf(&b, "t = %.4f, df = %d, critical value = ±%.4f, p = %.4g.\n", t, obs.SampleSize-1, critical, pValue)
	b.WriteString(verdict(rejected))

	return &Result{
		Outcome:  b.String(),
		Rejected: rejected,
		Statistics: stats.Statistics{
			"null_value":         null.Value,
			"sample_statistic":   obs.Mean.Value,
			"standard_error":     obs.StandardError.Value,
			"sample_size":        float64(obs.SampleSize),
			"test_statistic":     t,
			"degrees_of_freedom": df,
			"critical_value":     critical,
			"p_value":            pValue,
			"confidence":         level.Fraction(),
			"alpha":              alpha,
		},
		Confidence: level,
	}, nil
}

// AboutMedians judges a sign-test z-statistic against the standard normal.
// The exact two-sided binomial p-value is reported alongside.
func AboutMedians(obs *observation.Validated, prediction units.Quantity, z float64, level stats.ConfidenceLevel) (*Result, error) {
	level, err := checkLevel(level)
	if err != nil {
		return nil, err
	}
	counts, err := scores.ZSignStatistic{}.Counts(obs, prediction)
	if err != nil {
		return nil, err
	}
	if counts.NU == 0 || math.IsNaN(z) {
		return nil, fmt.Errorf("%w: sign test has no untied values", core.ErrUndefinedStatistic)
	}
	null, err := prediction.ConvertTo(obs.RawData.Unit)
	if err != nil {
		return nil, fmt.Errorf("%w: prediction: %v", core.ErrContractViolation, err)
	}
	median, err := sampleMedian(obs)
	if err != nil {
		return nil, err
	}

	alpha := level.Alpha()
	critical := distuv.UnitNormal.Quantile(1 - alpha/2)
	pValue := 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
	exactP := exactSignPValue(counts)
	rejected := math.Abs(z) > critical

	var b strings.Builder
	fmt.Fprintf(&b, "Hypothesis test about medians (two-tailed sign test, %s confidence).\n", level)
	fmt.Fprintf(&b, "H0: population median = %s (model prediction); Ha: population median != %s.\n", null, null)
	fmt.Fprintf(&b, "Sample median = %s; %d below, %d above, %d tied with the null value.\n",
		median, counts.SPlus, counts.SMinus, obs.RawData.Len()-counts.NU)
	fmt.Fprintf(&b, "z = %.4f, critical value = ±%.4f, p = %.4g (exact binomial p = %.4g).\n", z, critical, pValue, exactP)
	b.WriteString(verdict(rejected))

	return &Result{
		Outcome:  b.String(),
		Rejected: rejected,
		Statistics: stats.Statistics{
			"null_value":       null.Value,
			"sample_statistic": median.Value,
			"sample_size":      float64(obs.RawData.Len()),
			"s_plus":           float64(counts.SPlus),
			"s_minus":          float64(counts.SMinus),
			"n_u":              float64(counts.NU),
			"test_statistic":   z,
			"critical_value":   critical,
			"p_value":          pValue,
			"exact_p_value":    exactP,
			"confidence":       level.Fraction(),
			"alpha":            alpha,
		},
		Confidence: level,
	}, nil
}

// ForType runs the hypothesis test that pairs with a score type.
func ForType(t stats.ScoreType, obs *observation.Validated, prediction units.Quantity, statistic float64, level stats.ConfidenceLevel) (*Result, error) {
	switch t {
	case stats.ScoreTypeT:
		return AboutMeans(obs, prediction, statistic, level)
	case stats.ScoreTypeZSign:
		return AboutMedians(obs, prediction, statistic, level)
	default:
		return nil, fmt.Errorf("%w: no hypothesis test for score type %q", core.ErrContractViolation, t)
	}
}

func checkLevel(level stats.ConfidenceLevel) (stats.ConfidenceLevel, error) {
	if level == 0 {
		return stats.DefaultConfidence, nil
	}
	if !level.Valid() {
		return 0, fmt.Errorf("%w: unsupported confidence level %s", core.ErrContractViolation, level)
	}
	return level, nil
}

func verdict(rejected bool) string {
	if rejected {
		return verdictDiffers
	}
	return verdictIndistinguishable
}

func sampleMedian(obs *observation.Validated) (units.Quantity, error) {
	if obs.Median != nil {
		return obs.Median.ConvertTo(obs.RawData.Unit)
	}
	m, err := mstats.Median(obs.RawData.Values)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("%w: median: %v", core.ErrMissingStatistic, err)
	}
	return units.New(m, obs.RawData.Unit), nil
}

// exactSignPValue is the two-sided p-value of the sign test under
// Binomial(n_u, 1/2).
func exactSignPValue(c scores.SignCounts) float64 {
	k := c.SPlus
	if c.SMinus < k {
		k = c.SMinus
	}
	dist := moremath.BinomialDist{N: c.NU, P: 0.5}
	return math.Min(1, 2*dist.CDF(float64(k)))
}
