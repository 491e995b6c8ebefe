// Package batch runs many independent judgments concurrently. Every job gets
// its own ValidationTest; jobs share nothing but the model launcher.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ephysval/app"
	"ephysval/domain/observation"
	"ephysval/domain/stats"
	"ephysval/internal"
	"ephysval/ports"
)

// Job is one judgment to run. Launcher, when set, replaces the runner's
// launcher for this job only.
type Job struct {
	Name        string
	Observation *observation.Raw
	Model       ports.CellModel
	Launcher    ports.ModelLauncher
}

// Outcome is the result of one job. Exactly one of Score and Err is set.
type Outcome struct {
	Name  string       `json:"name"`
	Score *stats.Score `json:"score,omitempty"`
	Err   error        `json:"-"`
}

// Runner executes jobs with bounded concurrency.
type Runner struct {
	def          app.Definition
	launcher     ports.ModelLauncher
	testOptions  []app.Option
	concurrency  int
	modelTimeout time.Duration
	logger       *internal.Logger
}

// Config tunes a Runner
type Config struct {
	Concurrency  int
	ModelTimeout time.Duration // 0 disables the per-job timeout
	Logger       *internal.Logger
}

// NewRunner creates a runner. launcher serves jobs that carry none and may be
// nil when every job does. testOptions are applied to every ValidationTest.
func NewRunner(def app.Definition, launcher ports.ModelLauncher, cfg Config, testOptions ...app.Option) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = internal.DefaultLogger
	}
	return &Runner{
		def:          def,
		launcher:     launcher,
		testOptions:  append([]app.Option{app.WithLogger(cfg.Logger)}, testOptions...),
		concurrency:  cfg.Concurrency,
		modelTimeout: cfg.ModelTimeout,
		logger:       cfg.Logger,
	}
}

// Run judges every job and returns outcomes in job order. A failing job does
// not stop the others; the returned error is only set when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	sem := semaphore.NewWeighted(int64(r.concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		if err := sem.Acquire(gctx, 1); err != nil {
			outcomes[i] = Outcome{Name: job.Name, Err: err}
			continue
		}
		// job failures stay in outcomes; only cancellation stops the group
		g.Go(func() error {
			defer sem.Release(1)
			outcomes[i] = r.runOne(gctx, job)
			return gctx.Err()
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	r.logger.Info("batch finished: %d judgments, %d failed", len(jobs), failed)
	return outcomes, err
}

func (r *Runner) runOne(ctx context.Context, job Job) Outcome {
	launcher := job.Launcher
	if launcher == nil {
		launcher = r.launcher
	}
	vt, err := app.NewValidationTest(r.def, launcher, r.testOptions...)
	if err != nil {
		return Outcome{Name: job.Name, Err: err}
	}

	if r.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.modelTimeout)
		defer cancel()
	}

	score, err := vt.Judge(ctx, job.Observation, job.Model)
	if err != nil {
		r.logger.Warn("judgment %s failed: %v", job.Name, err)
		return Outcome{Name: job.Name, Err: err}
	}
	return Outcome{Name: job.Name, Score: score}
}
