package scores

import (
	"fmt"
	"math"

	"ephysval/domain/core"
	"ephysval/domain/observation"
	"ephysval/domain/stats"
	"ephysval/domain/units"
)

// SignCounts are the tallies behind the sign-test z-statistic.
//
// SPlus counts values strictly below the null value, the reverse of the
// textbook sign test. Published scores depend on this orientation.
type SignCounts struct {
	SPlus  int // data[i] < null
	SMinus int // data[i] > null
	NU     int // data[i] != null
}

// CountSigns tallies data against the null value.
func CountSigns(data []float64, null float64) SignCounts {
	var c SignCounts
	for _, x := range data {
		switch {
		case x < null:
			c.SPlus++
			c.NU++
		case x > null:
			c.SMinus++
			c.NU++
		}
	}
	return c
}

// Z returns (s_plus - n_u/2) / sqrt(n_u/4). When every value ties with the
// null value n_u is zero and the statistic is undefined.
func (c SignCounts) Z() (float64, error) {
	if c.NU == 0 {
		return math.NaN(), fmt.Errorf("%w: all values equal the null value (n_u = 0)", core.ErrUndefinedStatistic)
	}
	nu := float64(c.NU)
	return (float64(c.SPlus) - nu/2) / math.Sqrt(nu/4), nil
}

// ZSignStatistic is the z-statistic for the sign test about a median.
type ZSignStatistic struct{}

// Type returns stats.ScoreTypeZSign
func (ZSignStatistic) Type() stats.ScoreType { return stats.ScoreTypeZSign }

// Compute runs the single-sample sign test of obs.RawData against the prediction.
func (z ZSignStatistic) Compute(obs *observation.Validated, prediction units.Quantity) (float64, error) {
	counts, err := z.Counts(obs, prediction)
	if err != nil {
		return 0, err
	}
	return counts.Z()
}

// Counts returns the sign tallies Compute is based on.
func (ZSignStatistic) Counts(obs *observation.Validated, prediction units.Quantity) (SignCounts, error) {
	if err := requireRawData(obs); err != nil {
		return SignCounts{}, err
	}
	null, err := prediction.ConvertTo(obs.RawData.Unit)
	if err != nil {
		return SignCounts{}, fmt.Errorf("%w: prediction: %v", core.ErrContractViolation, err)
	}
	return CountSigns(obs.RawData.Values, null.Value), nil
}

// ComputePaired runs the paired-difference sign test: the differences
// raw_data - prediction are tested against a null value of zero.
func (z ZSignStatistic) ComputePaired(obs *observation.Validated, prediction units.Series) (float64, error) {
	counts, err := z.PairedCounts(obs, prediction)
	if err != nil {
		return 0, err
	}
	return counts.Z()
}

// PairedCounts returns the sign tallies ComputePaired is based on.
func (ZSignStatistic) PairedCounts(obs *observation.Validated, prediction units.Series) (SignCounts, error) {
	if err := requireRawData(obs); err != nil {
		return SignCounts{}, err
	}
	if prediction.Len() != obs.RawData.Len() {
		return SignCounts{}, fmt.Errorf("%w: raw_data has %d values, prediction has %d",
			core.ErrLengthMismatch, obs.RawData.Len(), prediction.Len())
	}
	diff, err := obs.RawData.Sub(prediction)
	if err != nil {
		return SignCounts{}, fmt.Errorf("%w: prediction: %v", core.ErrContractViolation, err)
	}
	return CountSigns(diff.Values, 0), nil
}

func requireRawData(obs *observation.Validated) error {
	if err := requireObservation(obs); err != nil {
		return err
	}
	if obs.RawData.Len() == 0 {
		return fmt.Errorf("%w: raw_data", core.ErrMissingStatistic)
	}
	return nil
}
