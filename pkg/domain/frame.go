package domain

import "strings"

// PathSeparator joins frame names into a display path.
const PathSeparator = "/"

// Frame is one container currently being visited.
type Frame struct {
	// ID identifies the container for the provider. Resuming a listing needs it.
	ID string
	// Name is only used to rebuild display paths. Two frames may share a name.
	Name string

	// LeafCursor paginates the container's leaf items. It moves from non-nil to
	// nil exactly once and never reverts.
	LeafCursor *Cursor
	// ChildCursor paginates the child containers. It is only consulted once
	// LeafCursor is nil.
	ChildCursor *Cursor
}

// NewFrame creates a frame for a container with both listings at their start.
func NewFrame(container Node) *Frame {
	return &Frame{
		ID:          container.ID,
		Name:        container.Name,
		LeafCursor:  StartCursor(),
		ChildCursor: StartCursor(),
	}
}

// Node returns the container handle of the frame.
func (f *Frame) Node() Node {
	return Node{ID: f.ID, Name: f.Name}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	return &Frame{
		ID:          f.ID,
		Name:        f.Name,
		LeafCursor:  f.LeafCursor.Clone(),
		ChildCursor: f.ChildCursor.Clone(),
	}
}

// Equal reports whether two frames hold the same identity and cursors.
func (f *Frame) Equal(other *Frame) bool {
	return f.ID == other.ID &&
		f.Name == other.Name &&
		f.LeafCursor.Equal(other.LeafCursor) &&
		f.ChildCursor.Equal(other.ChildCursor)
}

// Stack is the ordered sequence of frames of a traversal.
// Index 0 is the root; the last frame is the active container.
// A non-empty stack means the traversal is in progress.
type Stack struct {
	frames []*Frame
}

// NewStack creates a stack holding the given frames, root first.
func NewStack(frames ...*Frame) *Stack {
	return &Stack{frames: frames}
}

// Len returns the number of frames.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Empty reports whether the traversal is complete.
func (s *Stack) Empty() bool {
	return len(s.frames) == 0
}

// Top returns the active frame, or nil when the stack is empty.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Push descends into a new container.
func (s *Stack) Push(f *Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes the active frame once its container is fully visited.
func (s *Stack) Pop() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// Frames returns the frames root first. The slice must not be modified.
func (s *Stack) Frames() []*Frame {
	return s.frames
}

// Path returns the display path of the active container.
// The root frame is the starting point and does not appear in paths.
func (s *Stack) Path() string {
	if len(s.frames) <= 1 {
		return ""
	}
	names := make([]string, 0, len(s.frames)-1)
	for _, f := range s.frames[1:] {
		names = append(names, f.Name)
	}
	return strings.Join(names, PathSeparator)
}

// Join returns the display path of a node named name inside the active container.
func (s *Stack) Join(name string) string {
	base := s.Path()
	if base == "" {
		return name
	}
	return base + PathSeparator + name
}

// Clone returns a deep copy of the stack.
func (s *Stack) Clone() *Stack {
	frames := make([]*Frame, len(s.frames))
	for i, f := range s.frames {
		frames[i] = f.Clone()
	}
	return &Stack{frames: frames}
}

// Equal reports whether two stacks hold equal frames in the same order.
func (s *Stack) Equal(other *Stack) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, f := range s.frames {
		if !f.Equal(other.frames[i]) {
			return false
		}
	}
	return true
}

// SplitPath splits a slash separated path into its non-empty segments.
func SplitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, PathSeparator) {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
