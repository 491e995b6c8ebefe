package scores

import (
	"fmt"

	"ephysval/domain/core"
	"ephysval/domain/observation"
	"ephysval/domain/stats"
	"ephysval/domain/units"
)

// TStatistic is the one-sample Student's t-statistic
//
//	t = (mean - prediction) / standard_error
//
// All three quantities must be in compatible units; the result is dimensionless.
type TStatistic struct{}

// Type returns stats.ScoreTypeT
func (TStatistic) Type() stats.ScoreType { return stats.ScoreTypeT }

// Compute requires obs.StandardError to be set.
func (TStatistic) Compute(obs *observation.Validated, prediction units.Quantity) (float64, error) {
	if err := requireObservation(obs); err != nil {
		return 0, err
	}
	if obs.StandardError == nil {
		return 0, fmt.Errorf("%w: standard_error", core.ErrMissingStatistic)
	}

	diff, err := obs.Mean.Sub(prediction)
	if err != nil {
		return 0, fmt.Errorf("%w: prediction: %v", core.ErrContractViolation, err)
	}
	if obs.StandardError.Value == 0 {
		return 0, fmt.Errorf("%w: standard error is zero", core.ErrUndefinedStatistic)
	}

	t, err := diff.Ratio(*obs.StandardError)
	if err != nil {
		return 0, fmt.Errorf("%w: standard_error: %v", core.ErrContractViolation, err)
	}
	return t, nil
}
