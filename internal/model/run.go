package model

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus is the outcome of one workflow step.
type StepStatus string

const (
	// StepOK means the step's element was found and acted upon.
	StepOK StepStatus = "ok"

	// StepFallback means no candidate matched and the step succeeded by
	// navigating directly to a known URL.
	StepFallback StepStatus = "fallback"

	// StepSkipped means an optional step found nothing and the run went on.
	StepSkipped StepStatus = "skipped"

	// StepFailed means a required step failed and the run stopped.
	StepFailed StepStatus = "failed"
)

// StepResult records what happened in one workflow step.
type StepResult struct {
	// Name is the step name (e.g. "energy_usage").
	Name string `json:"name"`

	// Status is the step outcome.
	Status StepStatus `json:"status"`

	// Locator describes the candidate that matched, if any.
	Locator string `json:"locator,omitempty"`

	// Detail is a short diagnostic (error text or fallback URL).
	Detail string `json:"detail,omitempty"`

	// Duration is how long the step took.
	Duration time.Duration `json:"duration"`
}

// Transition records a stage change with its time.
type Transition struct {
	// Stage is the stage entered.
	Stage Stage `json:"stage"`

	// At is when the stage was entered.
	At time.Time `json:"at"`
}

// DownloadedFile describes a file the browser wrote into the download
// directory during the run. Its content is not parsed.
type DownloadedFile struct {
	// Name is the base file name.
	Name string `json:"name"`

	// Path is the absolute file path.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// SHA3 is the hex SHA3-256 digest of the file content.
	SHA3 string `json:"sha3,omitempty"`
}

// Run is the record of one download run.
// It never contains credentials.
type Run struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// Flow is the portal login flow used ("desktop" or "mobile").
	Flow string `json:"flow"`

	// DownloadDir is the normalized download directory.
	DownloadDir string `json:"download_dir"`

	// Range is the requested export window.
	Range DateRange `json:"range"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended. Zero while running.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Success is the final outcome.
	Success bool `json:"success"`

	// Message is the user-facing terminal message.
	Message string `json:"message,omitempty"`

	// Stage is the furthest stage reached before closing.
	Stage Stage `json:"stage"`

	// Transitions lists every stage entered, in order.
	Transitions []Transition `json:"transitions,omitempty"`

	// Steps lists the outcome of each executed step, in order.
	Steps []StepResult `json:"steps,omitempty"`

	// Progress is the milestone counter.
	Progress *Progress `json:"progress"`

	// Downloads lists the files written by the browser.
	Downloads []DownloadedFile `json:"downloads,omitempty"`

	// Screenshots lists failure screenshots saved during the run.
	Screenshots []string `json:"screenshots,omitempty"`

	// Error is the failure cause. Not serialized; see ErrorMessage.
	Error error `json:"-"`

	// ErrorMessage is the failure cause as text.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRun creates a Run in StageIdle with a fresh ID.
func NewRun(flow, downloadDir string, dateRange DateRange) *Run {
	return &Run{
		ID:          uuid.NewString(),
		Flow:        flow,
		DownloadDir: downloadDir,
		Range:       dateRange,
		StartedAt:   time.Now(),
		Stage:       StageIdle,
		Progress:    NewProgress(TotalMilestones),
	}
}

// Enter moves the run to the given stage and records the transition.
// Moving backwards is ignored except for StageClosed, which is always
// recorded but keeps Stage at the furthest stage reached.
func (r *Run) Enter(stage Stage) {
	if stage == StageClosed {
		r.Transitions = append(r.Transitions, Transition{Stage: stage, At: time.Now()})
		return
	}
	if stage <= r.Stage {
		return
	}
	r.Stage = stage
	r.Transitions = append(r.Transitions, Transition{Stage: stage, At: time.Now()})
}

// Closed reports whether the run's session was released.
func (r *Run) Closed() bool {
	n := len(r.Transitions)
	return n > 0 && r.Transitions[n-1].Stage == StageClosed
}

// AddStep appends a step result.
func (r *Run) AddStep(result StepResult) {
	r.Steps = append(r.Steps, result)
}

// StepNamed returns the result of the named step, if it ran.
func (r *Run) StepNamed(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Fail records err as the failure cause.
func (r *Run) Fail(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish records the terminal outcome.
func (r *Run) Finish(success bool, message string) {
	r.Success = success
	r.Message = message
	r.FinishedAt = time.Now()
}

// Duration returns the run's elapsed time, or zero while running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns the lightweight history view of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		StartedAt: r.StartedAt,
		Success:   r.Success,
		Message:   r.Message,
		Stage:     r.Stage,
		Range:     r.Range,
		Files:     len(r.Downloads),
	}
}

// RunSummary is the metadata shown in run history listings.
type RunSummary struct {
	// ID is the run identifier.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Success is the final outcome.
	Success bool `json:"success"`

	// Message is the terminal message.
	Message string `json:"message"`

	// Stage is the furthest stage reached.
	Stage Stage `json:"stage"`

	// Range is the requested export window.
	Range DateRange `json:"range"`

	// Files is the number of downloaded files.
	Files int `json:"files"`
}
