// Package scores holds the test statistics a validation run can be scored
// with. Each statistic is a stateless strategy selected by stats.ScoreType.
package scores

import (
	"fmt"

	"ephysval/domain/core"
	"ephysval/domain/observation"
	"ephysval/domain/stats"
	"ephysval/domain/units"
)

// Statistic computes a test statistic from a validated observation and the
// model prediction, which plays the role of the null value.
type Statistic interface {
	Type() stats.ScoreType
	Compute(obs *observation.Validated, prediction units.Quantity) (float64, error)
}

// ForType returns the statistic for a score type.
func ForType(t stats.ScoreType) (Statistic, error) {
	switch t {
	case stats.ScoreTypeT:
		return TStatistic{}, nil
	case stats.ScoreTypeZSign:
		return ZSignStatistic{}, nil
	default:
		return nil, fmt.Errorf("%w: no statistic for score type %q", core.ErrContractViolation, t)
	}
}

func requireObservation(obs *observation.Validated) error {
	if obs == nil {
		return fmt.Errorf("%w: observation is nil", core.ErrContractViolation)
	}
	return nil
}
