package ports

import (
	"context"

	"ephysval/domain/units"
)

// CellModel is the neuron model under test.
type CellModel interface {
	Name() string
	// SomaLocation names the section stimuli are injected into.
	SomaLocation() string
}

// RuntimeParameters configure a simulation run.
type RuntimeParameters struct {
	DT      float64 `json:"dt"`      // ms
	Celsius float64 `json:"celsius"` // degC
	TStop   float64 `json:"tstop"`   // ms
	VInit   float64 `json:"v_init"`  // mV
}

// StimulusPulse is one current-clamp step.
type StimulusPulse struct {
	Amp   float64 `json:"amp"`   // nA
	Dur   float64 `json:"dur"`   // ms
	Delay float64 `json:"delay"` // ms
}

// StimulusParameters describe the stimulus protocol.
type StimulusParameters struct {
	Type     []string        `json:"type"`
	StimList []StimulusPulse `json:"stimlist"`
	TStop    float64         `json:"tstop"`
}

// Capabilities names what the model is asked to produce and which test
// capability it must implement.
type Capabilities struct {
	Model string `json:"model"`
	VTest string `json:"vtest"`
}

// LaunchRequest is everything the execution engine needs for one run.
type LaunchRequest struct {
	Parameters       RuntimeParameters  `json:"parameters"`
	Stimulus         StimulusParameters `json:"stimparameters"`
	StimulusLocation string             `json:"stimloc"`
	Model            CellModel          `json:"-"`
	Capabilities     Capabilities       `json:"capabilities"`
	Mode             string             `json:"mode"`
}

// ModelRun is the model with its prediction attached.
type ModelRun struct {
	Model      string     `json:"model"`
	Prediction []float64  `json:"prediction"`
	Unit       units.Unit `json:"unit"`
}

// ModelLauncher executes a model. Implementations block until the run is
// complete; failures are fatal for the test run and are not retried.
type ModelLauncher interface {
	LaunchModel(ctx context.Context, req LaunchRequest) (*ModelRun, error)
}
