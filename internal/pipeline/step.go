package pipeline

import (
	"context"

	"github.com/youpower/greenbutton/internal/model"
)

// Outcome describes how a successful step got its result.
type Outcome struct {
	// Status is StepOK or StepFallback. Empty means StepOK.
	Status model.StepStatus

	// Locator is the candidate that matched, if any.
	Locator string

	// Detail is extra diagnostic text, e.g. the fallback URL.
	Detail string
}

// Matched returns an OK outcome for the given locator.
func Matched(locator string) Outcome {
	return Outcome{Status: model.StepOK, Locator: locator}
}

// FellBack returns a fallback outcome for the given URL.
func FellBack(url string) Outcome {
	return Outcome{Status: model.StepFallback, Detail: url}
}

// Step is one unit of the workflow.
type Step interface {
	// Name returns the step name used in logs and step results.
	Name() string

	// Do performs the step.
	Do(ctx context.Context, run *model.Run) (Outcome, error)

	// Required reports whether a failure stops the pipeline.
	Required() bool

	// Milestone reports whether success advances progress.
	Milestone() bool

	// Stage is the stage a successful run of the step enters.
	// model.StageIdle means the step does not change the stage.
	Stage() model.Stage
}

// Func is the work of a step built with NewStep.
type Func func(ctx context.Context, run *model.Run) (Outcome, error)

// StepOption configures a step built with NewStep.
type StepOption func(*funcStep)

// AsRequired makes failure of the step stop the pipeline.
func AsRequired() StepOption {
	return func(s *funcStep) { s.required = true }
}

// AsMilestone makes success of the step advance progress.
func AsMilestone() StepOption {
	return func(s *funcStep) { s.milestone = true }
}

// Entering sets the stage a successful step enters.
func Entering(stage model.Stage) StepOption {
	return func(s *funcStep) { s.stage = stage }
}

// NewStep builds a Step from a function. Steps are optional, not
// milestones and stage-neutral unless options say otherwise.
func NewStep(name string, fn Func, opts ...StepOption) Step {
	s := &funcStep{name: name, fn: fn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type funcStep struct {
	name      string
	fn        Func
	required  bool
	milestone bool
	stage     model.Stage
}

func (s *funcStep) Name() string       { return s.name }
func (s *funcStep) Required() bool     { return s.required }
func (s *funcStep) Milestone() bool    { return s.milestone }
func (s *funcStep) Stage() model.Stage { return s.stage }

func (s *funcStep) Do(ctx context.Context, run *model.Run) (Outcome, error) {
	return s.fn(ctx, run)
}
