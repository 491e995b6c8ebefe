package observation

import (
	"ephysval/domain/core"
	"ephysval/domain/units"
)

// ProtocolParameters describes how the experimental measurement was taken.
// Pointer fields distinguish an absent key from a zero value.
type ProtocolParameters struct {
	Temperature      *float64 `json:"temperature" yaml:"temperature"`
	InitialRestingVm *float64 `json:"initial_resting_Vm" yaml:"initial_resting_Vm"`
	CurrentAmplitude *float64 `json:"current_amplitude" yaml:"current_amplitude"`
	CurrentUnit      *string  `json:"current_unit" yaml:"current_unit"`
}

// Raw is an experimental observation as loaded, before validation.
type Raw struct {
	Mean       *float64            `json:"mean" yaml:"mean"`
	SD         *float64            `json:"SD" yaml:"SD"`
	SampleSize *int                `json:"sample_size" yaml:"sample_size"`
	Units      *string             `json:"units" yaml:"units"`
	RawData    []float64           `json:"raw_data" yaml:"raw_data"` // nil when absent
	Protocol   *ProtocolParameters `json:"protocol_parameters" yaml:"protocol_parameters"`

	// Optional provenance, not used by the statistics
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MissingFields lists required keys that are absent, in document order.
func (r *Raw) MissingFields() []string {
	var missing []string
	if r.Mean == nil {
		missing = append(missing, "mean")
	}
	if r.SD == nil {
		missing = append(missing, "SD")
	}
	if r.SampleSize == nil {
		missing = append(missing, "sample_size")
	}
	if r.Units == nil {
		missing = append(missing, "units")
	}
	if r.RawData == nil {
		missing = append(missing, "raw_data")
	}
	if r.Protocol == nil {
		return append(missing, "protocol_parameters")
	}
	if r.Protocol.Temperature == nil {
		missing = append(missing, "protocol_parameters.temperature")
	}
	if r.Protocol.InitialRestingVm == nil {
		missing = append(missing, "protocol_parameters.initial_resting_Vm")
	}
	if r.Protocol.CurrentAmplitude == nil {
		missing = append(missing, "protocol_parameters.current_amplitude")
	}
	if r.Protocol.CurrentUnit == nil {
		missing = append(missing, "protocol_parameters.current_unit")
	}
	return missing
}

// Validated is an observation after unit normalisation and derivation of
// the test-specific fields. Exactly one of StandardError and Median is set,
// depending on the data condition.
type Validated struct {
	Mean       units.Quantity `json:"mean"`
	SD         units.Quantity `json:"SD"`
	SampleSize int            `json:"sample_size"`
	Units      units.Unit     `json:"units"`
	RawData    units.Series   `json:"raw_data"`

	StandardError *units.Quantity `json:"standard_error,omitempty"`
	Median        *units.Quantity `json:"median,omitempty"`

	// Run parameters extracted from the protocol
	Celsius float64    `json:"celsius"`
	VInit   float64    `json:"v_init"`
	Amp     float64    `json:"amp"`
	AmpUnit units.Unit `json:"amp_unit"`
}

// Fingerprint hashes the normalized observation. Derived fields are not
// included, so the value is stable across score types.
func (v *Validated) Fingerprint() core.ObservationHash {
	summary := map[string]float64{
		"mean":        v.Mean.Value,
		"SD":          v.SD.Value,
		"sample_size": float64(v.SampleSize),
		"celsius":     v.Celsius,
		"v_init":      v.VInit,
		"amp":         v.Amp,
	}
	return core.ComputeObservationHash(summary, v.RawData.Values)
}

// Ptr returns a pointer to v. Handy for building Raw literals.
func Ptr[T any](v T) *T {
	return &v
}
