// Package datacond decides whether an observed sample justifies a
// hypothesis test about means or must fall back to one about medians.
package datacond

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Options tunes the decision thresholds.
type Options struct {
	// Samples at least this large are treated as parametric (central limit theorem).
	MinSampleSizeForMeans int
	// Smallest sample the normality test is attempted on.
	MinSampleSizeForNormality int
	// Normality is accepted when the Jarque-Bera p-value exceeds this.
	NormalityAlpha float64
}

// DefaultOptions returns the thresholds used when none are configured.
func DefaultOptions() Options {
	return Options{
		MinSampleSizeForMeans:     30,
		MinSampleSizeForNormality: 3,
		NormalityAlpha:            0.05,
	}
}

// Assessment explains a data-condition decision.
type Assessment struct {
	Parametric bool
	Reason     string
	JarqueBera float64 // NaN when the normality test was not run
	PValue     float64 // NaN when the normality test was not run
}

// Checker is a pure, deterministic data-condition test.
type Checker struct {
	opts Options
}

// NewChecker creates a checker. Zero-valued option fields fall back to defaults.
func NewChecker(opts Options) *Checker {
	def := DefaultOptions()
	if opts.MinSampleSizeForMeans <= 0 {
		opts.MinSampleSizeForMeans = def.MinSampleSizeForMeans
	}
	if opts.MinSampleSizeForNormality < 3 {
		opts.MinSampleSizeForNormality = def.MinSampleSizeForNormality
	}
	if opts.NormalityAlpha <= 0 || opts.NormalityAlpha >= 1 {
		opts.NormalityAlpha = def.NormalityAlpha
	}
	return &Checker{opts: opts}
}

// Ask returns true when a mean-based (parametric) test is justified.
func (c *Checker) Ask(sampleSize int, rawData []float64) bool {
	return c.Assess(sampleSize, rawData).Parametric
}

// Assess is Ask with the reasoning attached.
func (c *Checker) Assess(sampleSize int, rawData []float64) Assessment {
	a := Assessment{JarqueBera: math.NaN(), PValue: math.NaN()}

	data := finite(rawData)
	if sampleSize < 2 || len(data) < 2 {
		a.Reason = "sample too small for any inference about means"
		return a
	}

	if sampleSize >= c.opts.MinSampleSizeForMeans {
		a.Parametric = true
		a.Reason = fmt.Sprintf("sample size %d >= %d, sampling distribution of the mean is approximately normal",
			sampleSize, c.opts.MinSampleSizeForMeans)
		return a
	}

	if len(data) < c.opts.MinSampleSizeForNormality {
		a.Reason = fmt.Sprintf("only %d raw values, normality cannot be assessed", len(data))
		return a
	}

	jb, ok := jarqueBera(data)
	if !ok {
		a.Reason = "sample has zero variance, normality cannot be assessed"
		return a
	}
	a.JarqueBera = jb
	a.PValue = 1 - distuv.ChiSquared{K: 2}.CDF(jb)
	a.Parametric = a.PValue > c.opts.NormalityAlpha
	if a.Parametric {
		a.Reason = fmt.Sprintf("small sample (n=%d) consistent with normality (Jarque-Bera p=%.3g)", sampleSize, a.PValue)
	} else {
		a.Reason = fmt.Sprintf("small sample (n=%d) departs from normality (Jarque-Bera p=%.3g)", sampleSize, a.PValue)
	}
	return a
}

// jarqueBera computes JB = n/6 * (S^2 + (K-3)^2/4) from population moments.
func jarqueBera(data []float64) (float64, bool) {
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, false
	}

	n := float64(len(data))
	var m2, m3, m4 float64
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n

	if m2 == 0 {
		return 0, false
	}

	skewness := m3 / math.Pow(m2, 1.5)
	kurtosis := m4 / (m2 * m2)
	return n / 6 * (skewness*skewness + (kurtosis-3)*(kurtosis-3)/4), true
}

func finite(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, x := range data {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
