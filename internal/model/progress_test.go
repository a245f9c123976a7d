package model

import "testing"

// TestProgressTick tests percentage reporting and clamping.
func TestProgressTick(t *testing.T) {
	t.Parallel()

	t.Run("five ticks reach 100 percent", func(t *testing.T) {
		t.Parallel()

		p := NewProgress(TotalMilestones)
		want := []int{20, 40, 60, 80, 100}
		for i, w := range want {
			if got := p.Tick(); got != w {
				t.Errorf("tick %d: got %d%%, want %d%%", i+1, got, w)
			}
		}
	})

	t.Run("never exceeds total", func(t *testing.T) {
		t.Parallel()

		p := NewProgress(2)
		prev := 0
		for i := 0; i < 10; i++ {
			got := p.Tick()
			if got < prev {
				t.Fatalf("percentage decreased: %d -> %d", prev, got)
			}
			if got > 100 {
				t.Fatalf("percentage above 100: %d", got)
			}
			prev = got
		}
		if p.Steps() != 2 {
			t.Errorf("expected step to stop at 2, got %d", p.Steps())
		}
	})

	t.Run("non-positive total uses default", func(t *testing.T) {
		t.Parallel()

		p := NewProgress(0)
		if p.Total != TotalMilestones {
			t.Errorf("expected total %d, got %d", TotalMilestones, p.Total)
		}
		if p.Percent() != 0 {
			t.Errorf("expected 0%% before ticks, got %d", p.Percent())
		}
	})
}
