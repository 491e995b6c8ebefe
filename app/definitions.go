package app

import (
	"ephysval/domain/observation"
	"ephysval/domain/units"
	"ephysval/ports"
)

// Definition describes one kind of validation test: what the observation
// must look like and how the model is driven to produce a comparable value.
type Definition struct {
	Name string

	// ExpectedUnit is the unit observations must be reported in.
	ExpectedUnit units.Unit
	// NormalizedUnit is the unit statistics are computed in.
	NormalizedUnit units.Unit
	// CurrentUnit is the required protocol current unit.
	CurrentUnit units.Unit

	Capabilities ports.Capabilities
	Mode         string

	// BuildRun derives the simulation configuration from a validated observation.
	BuildRun func(obs *observation.Validated) (ports.RuntimeParameters, ports.StimulusParameters)
}

const (
	somaRinDT        = 0.025 // ms
	somaRinPulseDur  = 200.0 // ms
	somaRinFirstStep = 400.0 // ms
)

// SomaInputResistance compares somatic input resistance measured with a
// hyperpolarising/depolarising current-clamp protocol.
func SomaInputResistance() Definition {
	return Definition{
		Name:           "soma_input_resistance",
		ExpectedUnit:   units.Megaohm,
		NormalizedUnit: units.Ohm,
		CurrentUnit:    units.Nanoampere,
		Capabilities: ports.Capabilities{
			Model: "produce_soma_inputR",
			VTest: "ProducesEphysMeasurement",
		},
		Mode:     "capability",
		BuildRun: somaRinRun,
	}
}

// somaRinRun applies amp, rests, then applies amp again, each for 200 ms.
func somaRinRun(obs *observation.Validated) (ports.RuntimeParameters, ports.StimulusParameters) {
	pulses := []ports.StimulusPulse{
		{Amp: obs.Amp, Dur: somaRinPulseDur, Delay: somaRinFirstStep},
		{Amp: 0, Dur: somaRinPulseDur, Delay: somaRinFirstStep + somaRinPulseDur},
		{Amp: obs.Amp, Dur: somaRinPulseDur, Delay: somaRinFirstStep + 2*somaRinPulseDur},
	}
	last := pulses[len(pulses)-1]
	tstop := last.Delay + last.Dur

	runtime := ports.RuntimeParameters{
		DT:      somaRinDT,
		Celsius: obs.Celsius,
		TStop:   tstop,
		VInit:   obs.VInit,
	}
	stimulus := ports.StimulusParameters{
		Type:     []string{"current", "IClamp"},
		StimList: pulses,
		TStop:    tstop,
	}
	return runtime, stimulus
}

// Definitions lists the validation tests known to the CLI and API, by name.
func Definitions() map[string]Definition {
	rin := SomaInputResistance()
	return map[string]Definition{
		rin.Name: rin,
	}
}
