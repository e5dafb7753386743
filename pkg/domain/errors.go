package domain

import "errors"

// ErrCheckpointNotFound is returned when no checkpoint is stored under a key.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrInvalidCheckpoint is returned when a stored checkpoint cannot be decoded.
var ErrInvalidCheckpoint = errors.New("invalid checkpoint")

// ErrEmptyStack is returned when the engine is stepped on a finished traversal.
var ErrEmptyStack = errors.New("step called on empty traversal stack")

// ErrCursorDesync is returned when the active frame has no cursor left to advance.
// It means the checkpoint and the engine disagree about the traversal state.
var ErrCursorDesync = errors.New("frame has no pending cursor")

// ErrNodeNotFound is returned when a path segment cannot be resolved.
var ErrNodeNotFound = errors.New("node not found")

// ErrNoOutputTable is returned when a resume finds no output table to append to.
var ErrNoOutputTable = errors.New("no output table")

// ErrRunMismatch is returned when the checkpoint belongs to a different
// traversal attempt than the current output table.
var ErrRunMismatch = errors.New("checkpoint and output table belong to different runs")
