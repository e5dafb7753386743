package domain

import "time"

// CheckpointKey is the single well-known slot holding the traversal checkpoint.
const CheckpointKey = "sharewalk:checkpoint"

// Completion is the tri-state completion flag shown to the operator.
type Completion string

const (
	CompletionRunning Completion = "running" // An invocation is in progress
	CompletionNo      Completion = "no"      // Suspended, resume later
	CompletionYes     Completion = "yes"     // Traversal finished
)

// RunMetadata holds the status cells stored next to the output table.
// It is not part of the engine state.
type RunMetadata struct {
	// RunID identifies the traversal attempt (one output table).
	RunID string `json:"run_id"`
	// StartedAt is when the current traversal attempt began.
	StartedAt time.Time `json:"started_at"`
	// LastRunAt is when the latest invocation began.
	LastRunAt time.Time `json:"last_run_at"`
	// Invocations counts the invocations consumed so far.
	Invocations int `json:"invocations"`
	// Completion is running, no (suspended) or yes (finished).
	Completion Completion `json:"completion"`
}

// NewRunMetadata creates the status of a fresh traversal attempt.
func NewRunMetadata(runID string, now time.Time) RunMetadata {
	return RunMetadata{
		RunID:       runID,
		StartedAt:   now,
		LastRunAt:   now,
		Invocations: 1,
		Completion:  CompletionRunning,
	}
}

// Resumed returns the status of an invocation continuing this attempt.
func (m RunMetadata) Resumed(now time.Time) RunMetadata {
	m.LastRunAt = now
	m.Invocations++
	m.Completion = CompletionRunning
	return m
}
