package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ephysval/adapters/model"
	"ephysval/domain/stats"
	"ephysval/domain/units"
	"ephysval/internal/errors"
	"ephysval/ports"
)

// Manifest lists judgments to run against recorded model outputs.
//
//	test: soma_input_resistance
//	confidence: "95"
//	judgments:
//	  - name: llinas_vs_purkinje
//	    observation: llinas_sugimori_1980_soma_rin.json
//	    model: purkinje_2019
//	    prediction: [118.2, 121.4]
//	    unit: Mohm
type Manifest struct {
	Test       string  `yaml:"test"`
	Confidence string  `yaml:"confidence"`
	Judgments  []Entry `yaml:"judgments"`

	dir string
}

// Entry is one manifest judgment. Observation paths are relative to the manifest.
type Entry struct {
	Name        string    `yaml:"name"`
	Observation string    `yaml:"observation"`
	Model       string    `yaml:"model"`
	Prediction  []float64 `yaml:"prediction"`
	Unit        string    `yaml:"unit"`
}

// LoadManifest reads and checks a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("parse manifest %s: %w", path, err))
	}
	m.dir = filepath.Dir(path)

	if len(m.Judgments) == 0 {
		return nil, errors.InvalidInput("manifest has no judgments")
	}
	seen := make(map[string]bool, len(m.Judgments))
	for i, e := range m.Judgments {
		if e.Name == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("judgment %d has no name", i))
		}
		if seen[e.Name] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate judgment name %q", e.Name))
		}
		seen[e.Name] = true
		if e.Observation == "" || e.Model == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("judgment %q needs observation and model", e.Name))
		}
		if !units.Unit(e.Unit).Known() {
			return nil, errors.InvalidInput(fmt.Sprintf("judgment %q: unknown unit %q", e.Name, e.Unit))
		}
	}
	return &m, nil
}

// ConfidenceLevel returns the manifest confidence, or 0 when it is unset.
func (m *Manifest) ConfidenceLevel() (stats.ConfidenceLevel, error) {
	if m.Confidence == "" {
		return 0, nil
	}
	level, err := stats.ParseConfidenceLevel(m.Confidence)
	if err != nil {
		return 0, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return level, nil
}

// Jobs loads each observation and gives every job its own replay launcher
// holding that entry's prediction, so entries naming the same model keep
// their own outputs.
func (m *Manifest) Jobs(ctx context.Context, reader ports.ObservationReader) ([]Job, error) {
	jobs := make([]Job, 0, len(m.Judgments))
	for _, e := range m.Judgments {
		path := e.Observation
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.dir, path)
		}
		raw, err := reader.ReadObservation(ctx, path)
		if err != nil {
			return nil, errors.Wrapf(err, "judgment %q", e.Name)
		}
		launcher := model.NewReplayLauncher()
		if len(e.Prediction) > 0 {
			launcher.Record(e.Model, e.Prediction, units.Unit(e.Unit))
		}
		jobs = append(jobs, Job{
			Name:        e.Name,
			Observation: raw,
			Model:       model.Cell{ModelName: e.Model},
			Launcher:    launcher,
		})
	}
	return jobs, nil
}
