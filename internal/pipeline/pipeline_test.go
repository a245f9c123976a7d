package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/youpower/greenbutton/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	required  bool
	milestone bool
	stage     model.Stage
	doFunc    func(ctx context.Context, run *model.Run) (Outcome, error)
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.Run) (Outcome, error) {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return Outcome{}, nil
}

func (m *mockStep) Name() string       { return m.name }
func (m *mockStep) Required() bool     { return m.required }
func (m *mockStep) Milestone() bool    { return m.milestone }
func (m *mockStep) Stage() model.Stage { return m.stage }

func newRun() *model.Run {
	return model.NewRun("desktop", "/tmp/downloads", model.DateRange{})
}

func failWith(err error) func(context.Context, *model.Run) (Outcome, error) {
	return func(context.Context, *model.Run) (Outcome, error) {
		return Outcome{}, err
	}
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected 0 steps, got %d", p.StepCount())
	}
	if p.logger == nil || p.notify == nil {
		t.Error("expected defaults for logger and notify")
	}
}

// TestPipelineAddStep tests adding steps and their order.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	names := p.StepNames()
	expected := []string{"first", "second", "third"}
	if len(names) != len(expected) {
		t.Fatalf("expected %d names, got %d", len(expected), len(names))
	}
	for i, name := range names {
		if name != expected[i] {
			t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
		}
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		record := func(name string) func(context.Context, *model.Run) (Outcome, error) {
			return func(context.Context, *model.Run) (Outcome, error) {
				order = append(order, name)
				return Matched("id=" + name), nil
			}
		}

		p := New()
		p.AddSteps(
			&mockStep{name: "step-1", doFunc: record("step-1")},
			&mockStep{name: "step-2", doFunc: record("step-2")},
		)

		run := newRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("wrong execution order: %v", order)
		}
		if len(run.Steps) != 2 || run.Steps[1].Locator != "id=step-2" {
			t.Errorf("unexpected step results: %+v", run.Steps)
		}
	})

	t.Run("stops on required failure", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		next := &mockStep{name: "should-not-run"}

		p := New()
		p.AddSteps(&mockStep{name: "failing", required: true, doFunc: failWith(expectedErr)}, next)

		run := newRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if next.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if !errors.Is(run.Error, expectedErr) || run.ErrorMessage != expectedErr.Error() {
			t.Error("expected error to be recorded in run")
		}
		if got, _ := run.StepNamed("failing"); got.Status != model.StepFailed {
			t.Errorf("expected failed status, got %s", got.Status)
		}
	})

	t.Run("continues past optional failure", func(t *testing.T) {
		t.Parallel()

		next := &mockStep{name: "should-run"}

		p := New()
		p.AddSteps(&mockStep{name: "optional", doFunc: failWith(errors.New("missing"))}, next)

		run := newRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if next.callCount != 1 {
			t.Error("second step should have been called")
		}
		if got, _ := run.StepNamed("optional"); got.Status != model.StepSkipped || got.Detail != "missing" {
			t.Errorf("unexpected optional result: %+v", got)
		}
		if run.Error != nil {
			t.Error("optional failure should not set run error")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New()
		p.AddStep(step)

		run := newRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !errors.Is(run.Error, context.Canceled) {
			t.Error("expected cancellation recorded in run")
		}
	})
}

// TestPipelineMilestones tests progress ticks and stage transitions.
func TestPipelineMilestones(t *testing.T) {
	t.Parallel()

	t.Run("ticks only successful milestones", func(t *testing.T) {
		t.Parallel()

		var ticks []int
		p := New(WithProgress(func(pct int) { ticks = append(ticks, pct) }))
		p.AddSteps(
			&mockStep{name: "a", milestone: true, stage: model.StageUsageOpen},
			&mockStep{name: "b"},
			&mockStep{name: "c", milestone: true, doFunc: failWith(errors.New("soft"))},
			&mockStep{name: "d", milestone: true, stage: model.StageDetailsOpen},
		)

		run := newRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ticks) != 2 || ticks[0] != 20 || ticks[1] != 40 {
			t.Errorf("unexpected ticks %v", ticks)
		}
		if run.Stage != model.StageDetailsOpen {
			t.Errorf("expected details_open, got %s", run.Stage)
		}
	})

	t.Run("fallback outcome is recorded and ticks", func(t *testing.T) {
		t.Parallel()

		ticks := 0
		p := New(WithProgress(func(int) { ticks++ }))
		p.AddStep(NewStep("energy_usage",
			func(context.Context, *model.Run) (Outcome, error) {
				return FellBack("https://example.test/usage"), nil
			},
			AsRequired(), AsMilestone(), Entering(model.StageUsageOpen),
		))

		run := newRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := run.StepNamed("energy_usage")
		if !ok || got.Status != model.StepFallback || got.Detail != "https://example.test/usage" {
			t.Errorf("unexpected result %+v", got)
		}
		if ticks != 1 {
			t.Errorf("expected 1 tick, got %d", ticks)
		}
	})
}

// TestNewStep tests the function step options.
func TestNewStep(t *testing.T) {
	t.Parallel()

	s := NewStep("x", func(context.Context, *model.Run) (Outcome, error) { return Outcome{}, nil })
	if s.Required() || s.Milestone() || s.Stage() != model.StageIdle {
		t.Error("expected optional, non-milestone, stage-neutral defaults")
	}

	s = NewStep("y", nil, AsRequired(), AsMilestone(), Entering(model.StageExportPanelOpen))
	if !s.Required() || !s.Milestone() || s.Stage() != model.StageExportPanelOpen {
		t.Error("options were not applied")
	}
	if s.Name() != "y" {
		t.Errorf("unexpected name %q", s.Name())
	}
}
