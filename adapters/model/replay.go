// Package model provides model-execution adapters. The simulator itself is
// external; ReplayLauncher serves predictions recorded from earlier runs.
package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ephysval/domain/units"
	"ephysval/ports"
)

// ErrUnknownModel is returned when no prediction was recorded for a model.
var ErrUnknownModel = errors.New("no recorded prediction for model")

// Cell is a named cell model.
type Cell struct {
	ModelName string
	Soma      string
}

// Name returns the model name
func (c Cell) Name() string { return c.ModelName }

// SomaLocation defaults to "soma"
func (c Cell) SomaLocation() string {
	if c.Soma == "" {
		return "soma"
	}
	return c.Soma
}

// ReplayLauncher answers LaunchModel from recorded outputs. It is safe for
// concurrent use.
type ReplayLauncher struct {
	mu       sync.RWMutex
	runs     map[string]ports.ModelRun
	launches map[string]int
}

// NewReplayLauncher creates an empty launcher
func NewReplayLauncher() *ReplayLauncher {
	return &ReplayLauncher{
		runs:     make(map[string]ports.ModelRun),
		launches: make(map[string]int),
	}
}

// Record stores the output model will return.
func (r *ReplayLauncher) Record(model string, prediction []float64, unit units.Unit) {
	values := make([]float64, len(prediction))
	copy(values, prediction)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[model] = ports.ModelRun{Model: model, Prediction: values, Unit: unit}
}

// LaunchModel returns the recorded run for req.Model.
func (r *ReplayLauncher) LaunchModel(ctx context.Context, req ports.LaunchRequest) (*ports.ModelRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Model == nil {
		return nil, fmt.Errorf("launch request has no model")
	}
	name := req.Model.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	r.launches[name]++

	out := run
	out.Prediction = append([]float64(nil), run.Prediction...)
	return &out, nil
}

// Launches reports how many times model was launched.
func (r *ReplayLauncher) Launches(model string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.launches[model]
}
