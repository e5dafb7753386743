package ports

import "context"

// CheckpointStore persists the serialized traversal between invocations.
// The engine uses a single well-known key (domain.CheckpointKey).
//
// Implementations do not serialize invocations; callers must ensure at most
// one invocation holds the checkpoint at a time (see DistributedLocker).
type CheckpointStore interface {
	// Get returns the blob stored under key.
	// Returns domain.ErrCheckpointNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores blob under key, replacing any previous value.
	Set(ctx context.Context, key string, blob []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
