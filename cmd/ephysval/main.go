package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ephysval/adapters/model"
	"ephysval/adapters/observation"
	"ephysval/adapters/stats/datacond"
	"ephysval/app"
	"ephysval/domain/stats"
	"ephysval/domain/units"
	"ephysval/internal"
	"ephysval/internal/batch"
	"ephysval/internal/config"
	"ephysval/internal/errors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:           "ephysval",
		Short:         "Judge neuron model predictions against electrophysiology observations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newJudgeCmd(),
		newBatchCmd(),
		newTestsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// setup loads configuration and the logger shared by every command
func setup() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, internal.NewLogger(cfg.Log.Level), nil
}

func confidenceFlag(flag string, fallback stats.ConfidenceLevel) (stats.ConfidenceLevel, error) {
	if flag == "" {
		return fallback, nil
	}
	level, err := stats.ParseConfidenceLevel(flag)
	if err != nil {
		return 0, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return level, nil
}

func newJudgeCmd() *cobra.Command {
	var testName string
	var modelName string
	var prediction []float64
	var unit string
	var confidence string

	cmd := &cobra.Command{
		Use:   "judge [observation.json]",
		Short: "Judge one recorded model prediction against an observation",
		Long: `Validate an observation, replay a recorded model prediction and print the score.

Example: ephysval judge llinas_1980.json --model purkinje_2019 --prediction 118.2,121.4 --unit Mohm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			def, ok := app.Definitions()[testName]
			if !ok {
				return errors.NotFound("test " + testName)
			}
			if !units.Unit(unit).Known() {
				return errors.InvalidInput("unknown prediction unit " + unit)
			}
			level, err := confidenceFlag(confidence, cfg.Judgment.Confidence)
			if err != nil {
				return err
			}

			raw, err := observation.NewJSONReader().ReadObservation(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			launcher := model.NewReplayLauncher()
			launcher.Record(modelName, prediction, units.Unit(unit))

			vt, err := app.NewValidationTest(def, launcher,
				app.WithConfidence(level),
				app.WithChecker(datacond.NewChecker(cfg.Datacond)),
				app.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.Judgment.ModelTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Judgment.ModelTimeout)
				defer cancel()
			}

			score, err := vt.Judge(ctx, raw, model.Cell{ModelName: modelName})
			if err != nil {
				return err
			}
			return printJSON(score)
		},
	}

	cmd.Flags().StringVar(&testName, "test", app.SomaInputResistance().Name, "Validation test to run")
	cmd.Flags().StringVar(&modelName, "model", "", "Model name")
	cmd.Flags().Float64SliceVar(&prediction, "prediction", nil, "Recorded model output values")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit of the prediction values (default: the test's normalized unit)")
	cmd.Flags().StringVar(&confidence, "confidence", "", "Confidence level: 90, 95 or 99")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("prediction")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch [manifest.yaml]",
		Short: "Run every judgment listed in a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			manifest, err := batch.LoadManifest(args[0])
			if err != nil {
				return err
			}
			testName := manifest.Test
			if testName == "" {
				testName = app.SomaInputResistance().Name
			}
			def, ok := app.Definitions()[testName]
			if !ok {
				return errors.NotFound("test " + testName)
			}
			level, err := manifest.ConfidenceLevel()
			if err != nil {
				return err
			}
			if level == 0 {
				level = cfg.Judgment.Confidence
			}

			jobs, err := manifest.Jobs(cmd.Context(), observation.NewJSONReader())
			if err != nil {
				return err
			}

			if concurrency <= 0 {
				concurrency = cfg.Batch.Concurrency
			}
			runner := batch.NewRunner(def, nil, batch.Config{
				Concurrency:  concurrency,
				ModelTimeout: cfg.Judgment.ModelTimeout,
				Logger:       logger,
			},
				app.WithConfidence(level),
				app.WithChecker(datacond.NewChecker(cfg.Datacond)),
			)

			outcomes, err := runner.Run(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			report := make([]batchLine, 0, len(outcomes))
			failed := 0
			for _, o := range outcomes {
				line := batchLine{Name: o.Name, Score: o.Score}
				if o.Err != nil {
					failed++
					line.Error = o.Err.Error()
					line.Code = errors.GetCode(o.Err)
				}
				report = append(report, line)
			}
			if err := printJSON(report); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d judgments failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel judgments (default: BATCH_CONCURRENCY)")
	return cmd
}

type batchLine struct {
	Name  string       `json:"name"`
	Score *stats.Score `json:"score,omitempty"`
	Error string       `json:"error,omitempty"`
	Code  string       `json:"code,omitempty"`
}

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List available validation tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := app.Definitions()
			names := make([]string, 0, len(defs))
			for name := range defs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				d := defs[name]
				fmt.Printf("%s\tobservation unit %s, current unit %s\n", name, d.ExpectedUnit, d.CurrentUnit)
			}
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
