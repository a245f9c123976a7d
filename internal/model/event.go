package model

import "fmt"

// EventKind distinguishes progress ticks from the terminal result.
type EventKind int

const (
	// EventProgress carries a new progress percentage.
	EventProgress EventKind = iota

	// EventResult is the single terminal event of a run.
	EventResult
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventResult:
		return "result"
	default:
		return "unknown"
	}
}

// Event is a notification from the run worker to its single subscriber.
// A run emits zero or more EventProgress events followed by exactly one
// EventResult.
type Event struct {
	// Kind is the event type.
	Kind EventKind `json:"kind"`

	// Percent is the progress percentage (0-100) for EventProgress.
	Percent int `json:"percent,omitempty"`

	// Success is the run outcome for EventResult.
	Success bool `json:"success,omitempty"`

	// Message is the user-facing outcome for EventResult.
	Message string `json:"message,omitempty"`
}

// ProgressEvent creates an EventProgress event.
func ProgressEvent(percent int) Event {
	return Event{Kind: EventProgress, Percent: percent}
}

// ResultEvent creates an EventResult event.
func ResultEvent(success bool, message string) Event {
	return Event{Kind: EventResult, Success: success, Message: message}
}

// String implements fmt.Stringer.
func (e Event) String() string {
	if e.Kind == EventResult {
		return fmt.Sprintf("result(success=%t, %q)", e.Success, e.Message)
	}
	return fmt.Sprintf("progress(%d%%)", e.Percent)
}
