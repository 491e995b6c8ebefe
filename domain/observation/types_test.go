package observation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ephysval/domain/units"
)

func TestRaw_MissingFields(t *testing.T) {
	complete := Raw{
		Mean:       Ptr(120.0),
		SD:         Ptr(30.0),
		SampleSize: Ptr(5),
		Units:      Ptr("Mohm"),
		RawData:    []float64{100, 110, 120, 130, 140},
		Protocol: &ProtocolParameters{
			Temperature:      Ptr(23.0),
			InitialRestingVm: Ptr(-65.0),
			CurrentAmplitude: Ptr(-0.5),
			CurrentUnit:      Ptr("nA"),
		},
	}
	assert.Empty(t, complete.MissingFields())

	noUnits := complete
	noUnits.Units = nil
	assert.Equal(t, []string{"units"}, noUnits.MissingFields())

	noProtocol := complete
	noProtocol.Protocol = nil
	noProtocol.RawData = nil
	assert.Equal(t, []string{"raw_data", "protocol_parameters"}, noProtocol.MissingFields())

	partialProtocol := complete
	partialProtocol.Protocol = &ProtocolParameters{Temperature: Ptr(23.0)}
	assert.Equal(t, []string{
		"protocol_parameters.initial_resting_Vm",
		"protocol_parameters.current_amplitude",
		"protocol_parameters.current_unit",
	}, partialProtocol.MissingFields())
}

func TestRaw_EmptyRawDataIsPresent(t *testing.T) {
	r := Raw{RawData: []float64{}}
	assert.NotContains(t, r.MissingFields(), "raw_data")
}

func TestValidated_Fingerprint(t *testing.T) {
	build := func(data ...float64) *Validated {
		return &Validated{
			Mean:       units.New(120e6, units.Ohm),
			SD:         units.New(20e6, units.Ohm),
			SampleSize: len(data),
			Units:      units.Ohm,
			RawData:    units.NewSeries(data, units.Ohm),
			Celsius:    23,
			VInit:      -65,
			Amp:        -0.5,
		}
	}

	a := build(100e6, 140e6)
	b := build(100e6, 140e6)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	se := units.New(1, units.Ohm)
	b.StandardError = &se
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "derived fields are not hashed")

	assert.NotEqual(t, a.Fingerprint(), build(100e6, 141e6).Fingerprint())
}
