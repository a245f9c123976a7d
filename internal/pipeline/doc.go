// Package pipeline runs an ordered list of workflow steps against a run
// record.
//
// Each step is either required or optional. A failed optional step is
// logged and recorded as skipped, and the pipeline moves on; a failed
// required step stops the pipeline. Steps marked as milestones advance
// the run's progress and notify the subscriber when they succeed, and
// every successful step moves the run to the stage it declares.
package pipeline
