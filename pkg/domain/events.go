package domain

import "context"

// StepOp names what a single engine step did to the stack.
type StepOp string

const (
	OpLeafAdvance  StepOp = "leaf_advance"  // Leaf cursor moved to the next item
	OpLeafDone     StepOp = "leaf_done"     // Leaf cursor became nil
	OpChildAdvance StepOp = "child_advance" // Child cursor moved past an empty page
	OpDescend      StepOp = "descend"       // Child found and pushed
	OpPop          StepOp = "pop"           // Container fully visited
)

// StepEvent describes one completed engine step.
type StepEvent struct {
	Op    StepOp
	Depth int    // Stack length after the step
	Path  string // Path of the node the step touched, if any
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStep   func(context.Context, StepEvent)
	OnRecord func(context.Context, Record)
}
