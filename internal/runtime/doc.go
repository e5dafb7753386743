// Package runtime implements the resumable depth-first traversal.
//
// Engine.Step advances exactly one pagination unit of the active frame.
// Loop drives Step under a wall-clock budget and persists the stack when the
// budget runs out. Select decides whether an invocation starts fresh or
// resumes from the stored checkpoint.
//
// Nothing in this package serializes invocations: callers must make sure at
// most one invocation reads and writes the checkpoint at a time.
package runtime
