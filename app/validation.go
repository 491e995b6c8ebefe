package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"ephysval/adapters/stats/datacond"
	"ephysval/adapters/stats/htest"
	"ephysval/adapters/stats/scores"
	"ephysval/domain/core"
	"ephysval/domain/observation"
	domainstats "ephysval/domain/stats"
	"ephysval/domain/units"
	"ephysval/internal"
	"ephysval/ports"
)

// State is a ValidationTest lifecycle stage.
type State int

const (
	StateUninitialized State = iota
	StateValidated
	StatePredicted
	StateScored
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateValidated:
		return "validated"
	case StatePredicted:
		return "predicted"
	case StateScored:
		return "scored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ValidationTest runs one judgment of a model against an observation:
// ValidateObservation, then GeneratePrediction, then ComputeScore. Each
// instance is single-use and not safe for concurrent use; run independent
// instances to judge in parallel.
type ValidationTest struct {
	def        Definition
	launcher   ports.ModelLauncher
	checker    *datacond.Checker
	confidence domainstats.ConfidenceLevel
	logger     *internal.Logger

	id          core.JudgmentID
	state       State
	observation *observation.Validated
	datacond    bool
	scoreType   domainstats.ScoreType
	prediction  *units.Quantity
}

// Option configures a ValidationTest
type Option func(*ValidationTest)

// WithConfidence sets the hypothesis-test confidence level.
func WithConfidence(level domainstats.ConfidenceLevel) Option {
	return func(v *ValidationTest) { v.confidence = level }
}

// WithChecker replaces the default data-condition checker.
func WithChecker(c *datacond.Checker) Option {
	return func(v *ValidationTest) { v.checker = c }
}

// WithLogger sets the logger.
func WithLogger(l *internal.Logger) Option {
	return func(v *ValidationTest) { v.logger = l }
}

// NewValidationTest creates a test for def that runs models through launcher.
func NewValidationTest(def Definition, launcher ports.ModelLauncher, opts ...Option) (*ValidationTest, error) {
	if launcher == nil {
		return nil, fmt.Errorf("%w: model launcher is required", core.ErrContractViolation)
	}
	if def.BuildRun == nil {
		return nil, fmt.Errorf("%w: definition %q has no run builder", core.ErrContractViolation, def.Name)
	}
	if _, err := units.Factor(def.ExpectedUnit, def.NormalizedUnit); err != nil {
		return nil, fmt.Errorf("%w: definition %q: %v", core.ErrContractViolation, def.Name, err)
	}

	v := &ValidationTest{
		def:        def,
		launcher:   launcher,
		checker:    datacond.NewChecker(datacond.DefaultOptions()),
		confidence: domainstats.DefaultConfidence,
		logger:     internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(v)
	}
	if !v.confidence.Valid() {
		return nil, fmt.Errorf("%w: unsupported confidence level %s", core.ErrContractViolation, v.confidence)
	}
	v.Reset()
	return v, nil
}

// Reset discards all per-judgment state so the instance can judge again.
func (v *ValidationTest) Reset() {
	v.id = core.NewJudgmentID()
	v.state = StateUninitialized
	v.observation = nil
	v.datacond = false
	v.scoreType = domainstats.ScoreTypeNone
	v.prediction = nil
}

// ID identifies the current judgment
func (v *ValidationTest) ID() core.JudgmentID { return v.id }

// State returns the lifecycle stage
func (v *ValidationTest) State() State { return v.state }

// Definition returns the test definition
func (v *ValidationTest) Definition() Definition { return v.def }

// Observation returns the validated observation, nil before validation.
func (v *ValidationTest) Observation() *observation.Validated { return v.observation }

// DataCondition reports whether the parametric path was chosen.
func (v *ValidationTest) DataCondition() bool { return v.datacond }

// Prediction returns the generated prediction, nil before GeneratePrediction.
func (v *ValidationTest) Prediction() *units.Quantity { return v.prediction }

// ScoreType returns the statistic selected during validation.
func (v *ValidationTest) ScoreType() domainstats.ScoreType { return v.scoreType }

func (v *ValidationTest) require(want State, step string) error {
	if v.state != want {
		return fmt.Errorf("%w: %s requires state %s, test is %s", core.ErrOutOfOrder, step, want, v.state)
	}
	return nil
}

// ValidateObservation checks raw, normalises its units, derives the fields
// the selected statistic needs and chooses the statistic.
func (v *ValidationTest) ValidateObservation(raw *observation.Raw) error {
	if err := v.require(StateUninitialized, "ValidateObservation"); err != nil {
		return err
	}
	v.logger.Info("[%s] Validate Observation ...", v.id)

	validated, err := v.normalize(raw)
	if err != nil {
		v.logger.Warn("[%s] observation rejected: %v", v.id, err)
		return err
	}

	assessment := v.checker.Assess(validated.SampleSize, validated.RawData.Values)
	v.datacond = assessment.Parametric
	v.scoreType = domainstats.ForDataCondition(v.datacond)
	v.logger.Debug("[%s] data condition: %s", v.id, assessment.Reason)

	if v.datacond {
		se := validated.SD.Scale(1 / math.Sqrt(float64(validated.SampleSize)))
		validated.StandardError = &se
	} else {
		m, err := stats.Median(validated.RawData.Values)
		if err != nil {
			return fmt.Errorf("%w: median of raw_data: %v", core.ErrObservation, err)
		}
		median := units.New(m, validated.RawData.Unit)
		validated.Median = &median
	}

	v.observation = validated
	v.state = StateValidated
	v.logger.Info("[%s] Validated. score type %s, observation %s", v.id, v.scoreType.Label(), core.Hash(validated.Fingerprint()).Short())
	return nil
}

func (v *ValidationTest) normalize(raw *observation.Raw) (*observation.Validated, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: observation is empty", core.ErrMissingField)
	}
	if missing := raw.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingField, strings.Join(missing, ", "))
	}
	if got := units.Unit(*raw.Units); got != v.def.ExpectedUnit {
		return nil, fmt.Errorf("%w: units is %q, expected %q", core.ErrUnitMismatch, got, v.def.ExpectedUnit)
	}
	if got := units.Unit(*raw.Protocol.CurrentUnit); got != v.def.CurrentUnit {
		return nil, fmt.Errorf("%w: current_unit is %q, expected %q", core.ErrUnitMismatch, got, v.def.CurrentUnit)
	}
	if *raw.SampleSize <= 0 {
		return nil, fmt.Errorf("%w: sample_size is %d", core.ErrInvalidSampleSize, *raw.SampleSize)
	}
	if len(raw.RawData) == 0 {
		return nil, fmt.Errorf("%w: raw_data is empty", core.ErrInvalidSampleSize)
	}

	mean, err := units.New(*raw.Mean, v.def.ExpectedUnit).ConvertTo(v.def.NormalizedUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: mean: %v", core.ErrUnitMismatch, err)
	}
	sd, err := units.New(*raw.SD, v.def.ExpectedUnit).ConvertTo(v.def.NormalizedUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: SD: %v", core.ErrUnitMismatch, err)
	}
	data, err := units.NewSeries(raw.RawData, v.def.ExpectedUnit).ConvertTo(v.def.NormalizedUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: raw_data: %v", core.ErrUnitMismatch, err)
	}

	return &observation.Validated{
		Mean:       mean,
		SD:         sd,
		SampleSize: *raw.SampleSize,
		Units:      v.def.NormalizedUnit,
		RawData:    data,
		Celsius:    *raw.Protocol.Temperature,
		VInit:      *raw.Protocol.InitialRestingVm,
		Amp:        *raw.Protocol.CurrentAmplitude,
		AmpUnit:    v.def.CurrentUnit,
	}, nil
}

// GeneratePrediction runs model once and returns the mean of its output in
// the observation's unit. Launcher failures are returned as-is wrapped in
// core.ErrModelExecution; nothing is retried.
func (v *ValidationTest) GeneratePrediction(ctx context.Context, model ports.CellModel) (units.Quantity, error) {
	if err := v.require(StateValidated, "GeneratePrediction"); err != nil {
		return units.Quantity{}, err
	}
	if model == nil {
		return units.Quantity{}, fmt.Errorf("%w: model is nil", core.ErrContractViolation)
	}
	v.logger.Info("[%s] Testing %s ...", v.id, model.Name())

	runtime, stimulus := v.def.BuildRun(v.observation)
	req := ports.LaunchRequest{
		Parameters:       runtime,
		Stimulus:         stimulus,
		StimulusLocation: model.SomaLocation(),
		Model:            model,
		Capabilities:     v.def.Capabilities,
		Mode:             v.def.Mode,
	}

	run, err := v.launcher.LaunchModel(ctx, req)
	if err != nil {
		v.logger.Error("[%s] model %s failed: %v", v.id, model.Name(), err)
		return units.Quantity{}, fmt.Errorf("%w: %s: %w", core.ErrModelExecution, model.Name(), err)
	}
	if run == nil || len(run.Prediction) == 0 {
		return units.Quantity{}, fmt.Errorf("%w: %s", core.ErrEmptyPrediction, model.Name())
	}

	mean, err := stats.Mean(run.Prediction)
	if err != nil || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return units.Quantity{}, fmt.Errorf("%w: %s produced a non-finite prediction", core.ErrModelExecution, model.Name())
	}

	unit := run.Unit
	if unit == units.Dimensionless {
		unit = v.def.NormalizedUnit
	}
	prediction, err := units.New(mean, unit).ConvertTo(v.def.NormalizedUnit)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("%w: %s: %v", core.ErrModelExecution, model.Name(), err)
	}

	v.prediction = &prediction
	v.state = StatePredicted
	v.logger.Debug("[%s] prediction %s from %d values", v.id, prediction, len(run.Prediction))
	return prediction, nil
}

// ComputeScore scores prediction with the statistic chosen at validation
// and judges it with the matching hypothesis test.
func (v *ValidationTest) ComputeScore(prediction units.Quantity) (*domainstats.Score, error) {
	if err := v.require(StatePredicted, "ComputeScore"); err != nil {
		return nil, err
	}
	v.logger.Info("[%s] Computing score ...", v.id)

	statistic, err := scores.ForType(v.scoreType)
	if err != nil {
		return nil, err
	}
	x, err := statistic.Compute(v.observation, prediction)
	if err != nil {
		return nil, err
	}
	result, err := htest.ForType(v.scoreType, v.observation, prediction, x, v.confidence)
	if err != nil {
		return nil, err
	}

	score := &domainstats.Score{
		JudgmentID:  v.id,
		Test:        v.def.Name,
		Observation: v.observation.Fingerprint(),
		Type:        v.scoreType,
		Value:       x,
		Description: result.Outcome,
		Statistics:  result.Statistics,
		Rejected:    result.Rejected,
	}
	v.state = StateScored
	v.logger.Info("[%s] Done. %s", v.id, score)
	v.logger.Debug("[%s] %s", v.id, score.Description)
	return score, nil
}

// Judge runs the three steps in order.
func (v *ValidationTest) Judge(ctx context.Context, raw *observation.Raw, model ports.CellModel) (*domainstats.Score, error) {
	if err := v.ValidateObservation(raw); err != nil {
		return nil, err
	}
	prediction, err := v.GeneratePrediction(ctx, model)
	if err != nil {
		return nil, err
	}
	return v.ComputeScore(prediction)
}
