// Package testkit generates synthetic observations and manifests for
// development and tests.
package testkit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	mstats "github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"ephysval/domain/observation"
	"ephysval/internal/batch"
)

// ObservationGeneratorConfig configures the synthetic observation generator
type ObservationGeneratorConfig struct {
	Mean       float64 `json:"mean"`
	SD         float64 `json:"sd"`
	SampleSize int     `json:"sample_size"`
	Units      string  `json:"units"`
	// Skewed draws log-normal samples with the same mean and SD, which fails
	// the normality check for moderate sample sizes.
	Skewed bool  `json:"skewed"`
	Seed   int64 `json:"seed"`

	Temperature      float64 `json:"temperature"`
	RestingVm        float64 `json:"resting_vm"`
	CurrentAmplitude float64 `json:"current_amplitude"`
	CurrentUnit      string  `json:"current_unit"`
}

// DefaultObservationConfig returns a somatic input resistance recording
// roughly matching Purkinje cell slice data.
func DefaultObservationConfig() ObservationGeneratorConfig {
	return ObservationGeneratorConfig{
		Mean:             120,
		SD:               20,
		SampleSize:       12,
		Units:            "Mohm",
		Seed:             42,
		Temperature:      23,
		RestingVm:        -65,
		CurrentAmplitude: -0.5,
		CurrentUnit:      "nA",
	}
}

// ObservationGenerator draws reproducible observations
type ObservationGenerator struct {
	config ObservationGeneratorConfig
	rng    *rand.Rand
}

// NewObservationGenerator creates a generator seeded from config
func NewObservationGenerator(config ObservationGeneratorConfig) *ObservationGenerator {
	return &ObservationGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Samples draws n values
func (g *ObservationGenerator) Samples(n int) []float64 {
	out := make([]float64, n)
	if !g.config.Skewed {
		for i := range out {
			out[i] = g.config.Mean + g.config.SD*g.rng.NormFloat64()
		}
		return out
	}

	// log-normal parameters giving the configured mean and SD
	v := math.Log(1 + (g.config.SD*g.config.SD)/(g.config.Mean*g.config.Mean))
	mu := math.Log(g.config.Mean) - v/2
	sigma := math.Sqrt(v)
	for i := range out {
		out[i] = math.Exp(mu + sigma*g.rng.NormFloat64())
	}
	return out
}

// Generate returns an observation whose summary fields are computed from
// its samples.
func (g *ObservationGenerator) Generate() (*observation.Raw, error) {
	data := g.Samples(g.config.SampleSize)

	mean, err := mstats.Mean(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean: %w", err)
	}
	sd, err := mstats.StandardDeviationSample(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute SD: %w", err)
	}

	return &observation.Raw{
		Mean:       observation.Ptr(mean),
		SD:         observation.Ptr(sd),
		SampleSize: observation.Ptr(len(data)),
		Units:      observation.Ptr(g.config.Units),
		RawData:    data,
		Protocol: &observation.ProtocolParameters{
			Temperature:      observation.Ptr(g.config.Temperature),
			InitialRestingVm: observation.Ptr(g.config.RestingVm),
			CurrentAmplitude: observation.Ptr(g.config.CurrentAmplitude),
			CurrentUnit:      observation.Ptr(g.config.CurrentUnit),
		},
		Source:      "synthetic",
		Description: fmt.Sprintf("seed %d, skewed=%t", g.config.Seed, g.config.Skewed),
	}, nil
}

// WriteObservation stores raw as an observation JSON document
func WriteObservation(path string, raw *observation.Raw) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode observation: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteManifest stores m as a YAML batch manifest
func WriteManifest(path string, m *batch.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SeedDataset writes count observations into dir, alternating normal and
// skewed samples, plus a manifest judging each against predictions drawn
// near the observed mean. It returns the manifest path.
func SeedDataset(dir string, config ObservationGeneratorConfig, count int) (string, error) {
	if count < 1 {
		return "", fmt.Errorf("count must be positive, got %d", count)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	manifest := &batch.Manifest{Test: "soma_input_resistance", Confidence: "95"}
	for i := 0; i < count; i++ {
		cfg := config
		cfg.Seed = config.Seed + int64(i)
		cfg.Skewed = i%2 == 1

		gen := NewObservationGenerator(cfg)
		raw, err := gen.Generate()
		if err != nil {
			return "", err
		}

		name := fmt.Sprintf("observation_%03d", i)
		if err := WriteObservation(filepath.Join(dir, name+".json"), raw); err != nil {
			return "", err
		}

		manifest.Judgments = append(manifest.Judgments, batch.Entry{
			Name:        name,
			Observation: name + ".json",
			Model:       fmt.Sprintf("synthetic_cell_%03d", i),
			Prediction:  gen.Samples(3),
			Unit:        cfg.Units,
		})
	}

	path := filepath.Join(dir, "manifest.yaml")
	if err := WriteManifest(path, manifest); err != nil {
		return "", err
	}
	return path, nil
}
