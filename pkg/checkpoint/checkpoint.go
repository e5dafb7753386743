package checkpoint

import (
	"time"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/google/uuid"
)

// Version is the schema version written by Encode.
const Version = 1

// Checkpoint is the persisted form of a traversal stack.
type Checkpoint struct {
	Version int       `json:"version"`
	ID      string    `json:"id" validate:"required,uuid"`
	RunID   string    `json:"run_id" validate:"required"`
	SavedAt time.Time `json:"saved_at"`
	Frames  []Frame   `json:"frames" validate:"required,min=1,dive"`
}

// Frame is the persisted form of a domain.Frame. A null cursor is exhausted.
type Frame struct {
	ID          string         `json:"id" validate:"required"`
	Name        string         `json:"name"`
	LeafCursor  *domain.Cursor `json:"leaf_cursor"`
	ChildCursor *domain.Cursor `json:"child_cursor"`
}

// New snapshots stack into a checkpoint with a fresh unique ID.
func New(runID string, stack *domain.Stack, now time.Time) *Checkpoint {
	frames := make([]Frame, 0, stack.Len())
	for _, f := range stack.Frames() {
		frames = append(frames, Frame{
			ID:          f.ID,
			Name:        f.Name,
			LeafCursor:  f.LeafCursor.Clone(),
			ChildCursor: f.ChildCursor.Clone(),
		})
	}
	return &Checkpoint{
		Version: Version,
		ID:      uuid.NewString(),
		RunID:   runID,
		SavedAt: now.UTC(),
		Frames:  frames,
	}
}

// Stack rebuilds the traversal stack, root first.
func (c *Checkpoint) Stack() *domain.Stack {
	frames := make([]*domain.Frame, 0, len(c.Frames))
	for _, f := range c.Frames {
		frames = append(frames, &domain.Frame{
			ID:          f.ID,
			Name:        f.Name,
			LeafCursor:  f.LeafCursor.Clone(),
			ChildCursor: f.ChildCursor.Clone(),
		})
	}
	return domain.NewStack(frames...)
}
