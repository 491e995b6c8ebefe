//go:build property
// +build property

package scores

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"ephysval/domain/core"
	"ephysval/domain/units"
)

// TestStatisticProperties covers the algebraic guarantees of both statistics
func TestStatisticProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("paired sign test equals scalar test on differences", prop.ForAll(
		func(raw, pred []float64) bool {
			n := len(raw)
			if len(pred) < n {
				n = len(pred)
			}
			if n == 0 {
				return true
			}
			raw, pred = raw[:n], pred[:n]

			paired, perr := ZSignStatistic{}.ComputePaired(sample(raw...), units.NewSeries(pred, units.Megaohm))

			diffs := make([]float64, n)
			for i := range diffs {
				diffs[i] = raw[i] - pred[i]
			}
			scalar, serr := ZSignStatistic{}.Compute(sample(diffs...), units.New(0, units.Megaohm))

			if perr != nil || serr != nil {
				return errors.Is(perr, core.ErrUndefinedStatistic) && errors.Is(serr, core.ErrUndefinedStatistic)
			}
			return paired == scalar
		},
		gen.SliceOf(gen.IntRange(80, 140).Map(func(v int) float64 { return float64(v) })),
		gen.SliceOf(gen.IntRange(80, 140).Map(func(v int) float64 { return float64(v) })),
	))

	properties.Property("z is zero-centred and bounded by sqrt(n_u)", prop.ForAll(
		func(raw []float64, null float64) bool {
			counts := CountSigns(raw, null)
			z, err := counts.Z()
			if counts.NU == 0 {
				return errors.Is(err, core.ErrUndefinedStatistic)
			}
			return err == nil && math.Abs(z) <= math.Sqrt(float64(counts.NU))+1e-12
		},
		gen.SliceOf(gen.Float64Range(-10, 10)),
		gen.Float64Range(-10, 10),
	))

	properties.Property("t is invariant under uniform rescaling", prop.ForAll(
		func(mean, se, pred, k float64) bool {
			base, err := TStatistic{}.Compute(tObservation(mean, se, units.Megaohm), units.New(pred, units.Megaohm))
			if err != nil {
				return false
			}
			scaled, err := TStatistic{}.Compute(tObservation(mean*k, se*k, units.Megaohm), units.New(pred*k, units.Megaohm))
			if err != nil {
				return false
			}
			return math.Abs(base-scaled) <= 1e-9*math.Max(1, math.Abs(base))
		},
		gen.Float64Range(1, 500),
		gen.Float64Range(0.1, 50),
		gen.Float64Range(1, 500),
		gen.Float64Range(1e-3, 1e6),
	))

	properties.TestingRun(t)
}
