package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Observation errors abort a test run before any model execution
	ErrObservation       = errors.New("observation error")
	ErrMissingField      = fmt.Errorf("%w: missing required field", ErrObservation)
	ErrUnitMismatch      = fmt.Errorf("%w: unit mismatch", ErrObservation)
	ErrInvalidSampleSize = fmt.Errorf("%w: invalid sample size", ErrObservation)

	// Contract violations: a statistic or lifecycle step used without its preconditions
	ErrContractViolation = errors.New("contract violation")
	ErrOutOfOrder        = fmt.Errorf("%w: step invoked out of order", ErrContractViolation)
	ErrMissingStatistic  = fmt.Errorf("%w: observation lacks required statistic", ErrContractViolation)
	ErrLengthMismatch    = fmt.Errorf("%w: paired sequences differ in length", ErrContractViolation)

	// Statistic errors
	ErrUndefinedStatistic = errors.New("undefined statistic")

	// Model collaborator errors
	ErrModelExecution  = errors.New("model execution failed")
	ErrEmptyPrediction = fmt.Errorf("%w: model produced no prediction", ErrModelExecution)
)
