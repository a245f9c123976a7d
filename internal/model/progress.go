package model

import "sync"

// TotalMilestones is the number of progress ticks in a complete run:
// login, energy usage, usage details, export panel and download.
const TotalMilestones = 5

// Progress is a monotonically increasing milestone counter.
// Step never exceeds Total; extra ticks are ignored.
type Progress struct {
	mu sync.Mutex

	// Step is the number of milestones reached so far.
	Step int `json:"step"`

	// Total is the number of milestones in a complete run.
	Total int `json:"total"`
}

// NewProgress creates a Progress with the given total.
// A non-positive total falls back to TotalMilestones.
func NewProgress(total int) *Progress {
	if total <= 0 {
		total = TotalMilestones
	}
	return &Progress{Total: total}
}

// Tick records one milestone and returns the new percentage.
func (p *Progress) Tick() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Step < p.Total {
		p.Step++
	}
	return p.percentLocked()
}

// Percent returns the current percentage in the range 0-100.
func (p *Progress) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percentLocked()
}

// Steps returns the current step count.
func (p *Progress) Steps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Step
}

func (p *Progress) percentLocked() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Step * 100 / p.Total
}
