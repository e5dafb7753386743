package ports

import (
	"context"

	"github.com/aretw0/sharewalk/pkg/domain"
)

// TreeProvider exposes a hierarchical tree through paginated listings.
//
// A listing call returns at most one node and the cursor to resume after it.
// A nil node means the listing yielded nothing more; a nil next cursor means
// the listing is exhausted. Cursors are opaque to callers.
type TreeProvider interface {
	// Root returns the top container of the tree.
	Root(ctx context.Context) (domain.Node, error)

	// Resolve walks the path segments from the root, one container per segment.
	// Returns domain.ErrNodeNotFound if any segment cannot be resolved.
	Resolve(ctx context.Context, segments []string) (domain.Node, error)

	// ListItems resumes the leaf-item listing of parent from cursor.
	ListItems(ctx context.Context, parent domain.Node, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error)

	// ListContainers resumes the child-container listing of parent from cursor.
	ListContainers(ctx context.Context, parent domain.Node, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error)
}

// SharingSource reports the sharing metadata the classification reads.
type SharingSource interface {
	// Access returns the sharing setting, owner, viewers and editors of a node.
	Access(ctx context.Context, node domain.Node) (domain.Access, error)

	// ActingIdentity returns the principal the traversal runs as.
	ActingIdentity(ctx context.Context) (string, error)
}
