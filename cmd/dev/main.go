package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"ephysval/adapters/observation"
	"ephysval/app"
	"ephysval/internal"
	"ephysval/internal/batch"
	"ephysval/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ephysval-dev",
		Short: "ephysval development tools",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed [dir]",
		Short: "Generate synthetic observations and a batch manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testkit.DefaultObservationConfig()
			cfg.Seed = seed
			path, err := testkit.SeedDataset(args[0], cfg, count)
			if err != nil {
				return fmt.Errorf("failed to seed dataset: %w", err)
			}
			fmt.Printf("Wrote %d observations and %s\n", count, path)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 6, "Number of observations")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	return cmd
}

func newSmokeTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Seed a temporary dataset and judge every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context())
		},
	}
}

func newDeterminismTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "determinism [manifest.yaml]",
		Short: "Run a manifest twice and compare the scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return testDeterminism(cmd.Context(), args[0])
		},
	}
}

func runManifest(ctx context.Context, path string) ([]batch.Outcome, error) {
	m, err := batch.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	jobs, err := m.Jobs(ctx, observation.NewJSONReader())
	if err != nil {
		return nil, err
	}
	runner := batch.NewRunner(app.SomaInputResistance(), nil, batch.Config{
		Concurrency: 4,
		Logger:      internal.NewLogger(internal.LogLevelWarn),
	})
	return runner.Run(ctx, jobs)
}

func runSmokeTests(ctx context.Context) error {
	fmt.Println("Running smoke tests...")

	dir, err := os.MkdirTemp("", "ephysval-smoke-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path, err := testkit.SeedDataset(dir, testkit.DefaultObservationConfig(), 6)
	if err != nil {
		return fmt.Errorf("failed to seed dataset: %w", err)
	}

	outcomes, err := runManifest(ctx, path)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			return fmt.Errorf("smoke judgment %s failed: %w", o.Name, o.Err)
		}
		fmt.Printf("  %s: %s (%s)\n", o.Name, o.Score, o.Score.Type)
	}
	fmt.Println("Smoke tests passed")
	return nil
}

func testDeterminism(ctx context.Context, path string) error {
	first, err := runManifest(ctx, path)
	if err != nil {
		return fmt.Errorf("first run failed: %w", err)
	}
	second, err := runManifest(ctx, path)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	return compareRuns(first, second)
}

func compareRuns(original, replay []batch.Outcome) error {
	if len(original) != len(replay) {
		return fmt.Errorf("outcome count differs: %d vs %d", len(original), len(replay))
	}
	for i := range original {
		a, b := original[i], replay[i]
		if (a.Err == nil) != (b.Err == nil) {
			return fmt.Errorf("%s: error state differs", a.Name)
		}
		if a.Err != nil {
			continue
		}
		if a.Score.Type != b.Score.Type || a.Score.Rejected != b.Score.Rejected {
			return fmt.Errorf("%s: verdict differs", a.Name)
		}
		if a.Score.Observation != b.Score.Observation {
			return fmt.Errorf("%s: observation fingerprint differs", a.Name)
		}
		if math.Float64bits(a.Score.Value) != math.Float64bits(b.Score.Value) {
			return fmt.Errorf("%s: score differs: %v vs %v", a.Name, a.Score.Value, b.Score.Value)
		}
	}
	fmt.Printf("Determinism verified for %d judgments\n", len(original))
	return nil
}
