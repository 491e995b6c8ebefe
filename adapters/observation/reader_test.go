package observation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ephysval/domain/core"
)

const rinDocument = `{
  "source": "Llinas & Sugimori 1980",
  "mean": 13.0,
  "SD": 4.2,
  "sample_size": 5,
  "units": "Mohm",
  "raw_data": [10, 12, 9, 15, 19],
  "protocol_parameters": {
    "temperature": 35.5,
    "initial_resting_Vm": -65,
    "current_amplitude": -0.5,
    "current_unit": "nA"
  }
}`

func TestParse_Complete(t *testing.T) {
	raw, err := Parse([]byte(rinDocument))
	require.NoError(t, err)

	assert.Empty(t, raw.MissingFields())
	assert.Equal(t, 13.0, *raw.Mean)
	assert.Equal(t, 4.2, *raw.SD)
	assert.Equal(t, 5, *raw.SampleSize)
	assert.Equal(t, "Mohm", *raw.Units)
	assert.Equal(t, []float64{10, 12, 9, 15, 19}, raw.RawData)
	assert.Equal(t, 35.5, *raw.Protocol.Temperature)
	assert.Equal(t, "nA", *raw.Protocol.CurrentUnit)
	assert.Equal(t, "Llinas & Sugimori 1980", raw.Source)
}

func TestParse_MissingKeysStayNil(t *testing.T) {
	raw, err := Parse([]byte(`{"mean": 0, "SD": 1, "raw_data": []}`))
	require.NoError(t, err)

	require.NotNil(t, raw.Mean, "a zero mean is present, not missing")
	assert.Equal(t, 0.0, *raw.Mean)
	assert.NotNil(t, raw.RawData)
	assert.Equal(t, []string{"sample_size", "units", "protocol_parameters"}, raw.MissingFields())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"mean": `},
		{"not an object", `[1, 2, 3]`},
		{"mean is a string", `{"mean": "13"}`},
		{"fractional sample size", `{"sample_size": 4.5}`},
		{"units is a number", `{"units": 1}`},
		{"raw data not an array", `{"raw_data": 5}`},
		{"raw data element not a number", `{"raw_data": [1, "two"]}`},
		{"protocol not an object", `{"protocol_parameters": 3}`},
		{"protocol temperature wrong type", `{"protocol_parameters": {"temperature": "warm"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, core.ErrObservation)
		})
	}
}

func TestJSONReader_ReadObservation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rin.json")
	require.NoError(t, os.WriteFile(path, []byte(rinDocument), 0o644))

	raw, err := NewJSONReader().ReadObservation(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 5, *raw.SampleSize)

	_, err = NewJSONReader().ReadObservation(context.Background(), filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
