package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHash(t *testing.T) {
	h := NewHash([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h.String())
	assert.Equal(t, "ba7816bf8f01", h.Short())
	assert.False(t, h.IsEmpty())
	assert.True(t, Hash("").IsEmpty())
}

func TestComputeObservationHash(t *testing.T) {
	a := ComputeObservationHash(map[string]float64{"mean": 1.2e8, "SD": 2e7}, []float64{1e8, 1.4e8})
	b := ComputeObservationHash(map[string]float64{"SD": 2e7, "mean": 1.2e8}, []float64{1e8, 1.4e8})
	assert.Equal(t, a, b, "summary key order must not matter")

	reordered := ComputeObservationHash(map[string]float64{"mean": 1.2e8, "SD": 2e7}, []float64{1.4e8, 1e8})
	assert.NotEqual(t, a, reordered)

	changed := ComputeObservationHash(map[string]float64{"mean": 1.2e8, "SD": 2.1e7}, []float64{1e8, 1.4e8})
	assert.NotEqual(t, a, changed)
	assert.Len(t, a.String(), 64)
}
