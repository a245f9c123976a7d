package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestRunEnter tests stage transition recording.
func TestRunEnter(t *testing.T) {
	t.Parallel()

	t.Run("moves forward and records transitions", func(t *testing.T) {
		t.Parallel()

		r := NewRun("desktop", "/tmp/out", DateRange{})
		r.Enter(StageSessionOpen)
		r.Enter(StageAuthenticated)

		if r.Stage != StageAuthenticated {
			t.Errorf("expected stage authenticated, got %s", r.Stage)
		}
		if len(r.Transitions) != 2 {
			t.Fatalf("expected 2 transitions, got %d", len(r.Transitions))
		}
	})

	t.Run("ignores backward moves", func(t *testing.T) {
		t.Parallel()

		r := NewRun("desktop", "/tmp/out", DateRange{})
		r.Enter(StageDetailsOpen)
		r.Enter(StageUsageOpen)

		if r.Stage != StageDetailsOpen {
			t.Errorf("expected stage details_open, got %s", r.Stage)
		}
		if len(r.Transitions) != 1 {
			t.Errorf("expected 1 transition, got %d", len(r.Transitions))
		}
	})

	t.Run("closed keeps furthest stage", func(t *testing.T) {
		t.Parallel()

		r := NewRun("desktop", "/tmp/out", DateRange{})
		r.Enter(StageSessionOpen)
		r.Enter(StageClosed)

		if r.Stage != StageSessionOpen {
			t.Errorf("expected stage session_open, got %s", r.Stage)
		}
		if !r.Closed() {
			t.Error("expected run to be closed")
		}
	})
}

// TestRunJSON tests that stages and errors serialize as text.
func TestRunJSON(t *testing.T) {
	t.Parallel()

	r := NewRun("mobile", "/tmp/out", DateRange{
		Start: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	r.Enter(StageSessionOpen)
	r.Enter(StageAuthenticated)
	r.Fail(errors.New("boom"))
	r.Finish(false, "Failed to download Green Button data.")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Run
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Stage != StageAuthenticated {
		t.Errorf("expected stage authenticated, got %s", decoded.Stage)
	}
	if decoded.ErrorMessage != "boom" {
		t.Errorf("expected error message 'boom', got %q", decoded.ErrorMessage)
	}
	if decoded.Error != nil {
		t.Error("expected Error to stay unserialized")
	}
}

// TestStageNames tests that every stage has a distinct name.
func TestStageNames(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for s := StageIdle; s <= StageClosed; s++ {
		name := s.String()
		if name == "unknown" {
			t.Errorf("stage %d has no name", s)
		}
		if seen[name] {
			t.Errorf("duplicate stage name %q", name)
		}
		seen[name] = true
	}
}
