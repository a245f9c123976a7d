package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/youpower/greenbutton/internal/model"
)

// Pipeline executes steps in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// notify receives the new percentage after each milestone.
	notify func(percent int)
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProgress sets the function called with the new percentage each
// time a milestone step succeeds.
func WithProgress(notify func(percent int)) Option {
	return func(p *Pipeline) {
		p.notify = notify
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.notify == nil {
		p.notify = func(int) {}
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order and records each result in run.
//
// Cancellation is checked before each step. A failed optional step is
// recorded as skipped; the first failed required step is recorded, stored
// as the run's error and returned.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			run.Fail(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"run", run.ID,
		)

		start := time.Now()
		out, err := step.Do(ctx, run)
		result := model.StepResult{
			Name:     step.Name(),
			Duration: time.Since(start),
		}

		if err != nil {
			result.Detail = err.Error()

			if step.Required() || ctx.Err() != nil {
				p.logger.Error("step failed",
					"step", step.Name(),
					"run", run.ID,
					"error", err,
				)
				result.Status = model.StepFailed
				run.AddStep(result)
				run.Fail(err)
				return err
			}

			p.logger.Warn("optional step skipped",
				"step", step.Name(),
				"run", run.ID,
				"error", err,
			)
			result.Status = model.StepSkipped
			run.AddStep(result)
			continue
		}

		result.Status = out.Status
		if result.Status == "" {
			result.Status = model.StepOK
		}
		result.Locator = out.Locator
		result.Detail = out.Detail
		run.AddStep(result)

		if step.Stage() != model.StageIdle {
			run.Enter(step.Stage())
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"run", run.ID,
			"status", result.Status,
		)

		if step.Milestone() {
			p.notify(run.Progress.Tick())
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
