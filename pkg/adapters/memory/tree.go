package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/sharewalk/pkg/domain"
)

// RootID is the identity of the root container of a Tree.
const RootID = "root"

type entry struct {
	node       domain.Node
	access     domain.Access
	container  bool
	items      []string
	containers []string
}

// Tree implements ports.TreeProvider and ports.SharingSource in memory.
// Every listing call returns one node, like a page size of one.
// Safe for concurrent use.
type Tree struct {
	mu       sync.RWMutex
	actor    string
	prefetch bool
	nodes    map[string]*entry
	seq      int
	calls    int
}

// TreeOption configures the Tree.
type TreeOption func(*Tree)

// WithPrefetchedAccess makes listings return nodes with their sharing metadata
// attached, the way a provider requesting permission fields would.
func WithPrefetchedAccess(enabled bool) TreeOption {
	return func(t *Tree) {
		t.prefetch = enabled
	}
}

// NewTree creates a tree holding only a root container owned by actor.
func NewTree(actor string, opts ...TreeOption) *Tree {
	t := &Tree{
		actor: actor,
		nodes: map[string]*entry{
			RootID: {
				node:      domain.Node{ID: RootID, Name: "root"},
				access:    PrivateAccess(actor),
				container: true,
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PrivateAccess is the sharing metadata of a node only owner can reach.
func PrivateAccess(owner string) domain.Access {
	return domain.Access{Level: domain.AccessPrivate, Owner: owner}
}

// LinkAccess is the sharing metadata of a node anyone with the link can view.
func LinkAccess(owner string) domain.Access {
	return domain.Access{Level: domain.AccessAnyoneWithLink, Owner: owner}
}

// AddContainer adds a child container under parentID and returns its ID.
func (t *Tree) AddContainer(parentID, name string, access domain.Access) (string, error) {
	return t.add(parentID, name, access, true)
}

// AddItem adds a leaf item under parentID and returns its ID.
func (t *Tree) AddItem(parentID, name string, access domain.Access) (string, error) {
	return t.add(parentID, name, access, false)
}

// MustAddContainer is AddContainer for fixtures; it panics on error.
func (t *Tree) MustAddContainer(parentID, name string, access domain.Access) string {
	id, err := t.AddContainer(parentID, name, access)
	if err != nil {
		panic(err)
	}
	return id
}

// MustAddItem is AddItem for fixtures; it panics on error.
func (t *Tree) MustAddItem(parentID, name string, access domain.Access) string {
	id, err := t.AddItem(parentID, name, access)
	if err != nil {
		panic(err)
	}
	return id
}

func (t *Tree) add(parentID, name string, access domain.Access, container bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.nodes[parentID]
	if !ok || !parent.container {
		return "", fmt.Errorf("container %s: %w", parentID, domain.ErrNodeNotFound)
	}

	t.seq++
	id := "n" + strconv.Itoa(t.seq)
	t.nodes[id] = &entry{
		node:      domain.Node{ID: id, Name: name},
		access:    access,
		container: container,
	}
	if container {
		parent.containers = append(parent.containers, id)
	} else {
		parent.items = append(parent.items, id)
	}
	return id, nil
}

// Calls returns the number of listing calls served so far.
func (t *Tree) Calls() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calls
}

// Root returns the root container.
func (t *Tree) Root(ctx context.Context) (domain.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[RootID].node, nil
}

// Resolve walks container names from the root.
func (t *Tree) Resolve(ctx context.Context, segments []string) (domain.Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur := t.nodes[RootID]
	for _, seg := range segments {
		var next *entry
		for _, id := range cur.containers {
			if t.nodes[id].node.Name == seg {
				next = t.nodes[id]
				break
			}
		}
		if next == nil {
			return domain.Node{}, fmt.Errorf("segment %q: %w", seg, domain.ErrNodeNotFound)
		}
		cur = next
	}
	return cur.node, nil
}

// ListItems returns the leaf item at the cursor position.
func (t *Tree) ListItems(ctx context.Context, parent domain.Node, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error) {
	return t.list(parent, cursor, func(e *entry) []string { return e.items })
}

// ListContainers returns the child container at the cursor position.
func (t *Tree) ListContainers(ctx context.Context, parent domain.Node, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error) {
	return t.list(parent, cursor, func(e *entry) []string { return e.containers })
}

func (t *Tree) list(parent domain.Node, cursor domain.Cursor, children func(*entry) []string) (*domain.Node, *domain.Cursor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++

	e, ok := t.nodes[parent.ID]
	if !ok || !e.container {
		return nil, nil, fmt.Errorf("container %s: %w", parent.ID, domain.ErrNodeNotFound)
	}

	pos := 0
	if cursor.Token != "" {
		n, err := strconv.Atoi(cursor.Token)
		if err != nil || n < 0 {
			return nil, nil, fmt.Errorf("invalid cursor token %q", cursor.Token)
		}
		pos = n
	}

	ids := children(e)
	if pos >= len(ids) {
		return nil, nil, nil
	}

	child := t.nodes[ids[pos]]
	node := child.node
	if t.prefetch {
		access := child.access
		node.Access = &access
	}

	var next *domain.Cursor
	if pos+1 < len(ids) {
		next = &domain.Cursor{Token: strconv.Itoa(pos + 1)}
	}
	return &node, next, nil
}

// Access returns the sharing metadata of a node.
func (t *Tree) Access(ctx context.Context, node domain.Node) (domain.Access, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.nodes[node.ID]
	if !ok {
		return domain.Access{}, fmt.Errorf("node %s: %w", node.ID, domain.ErrNodeNotFound)
	}
	return e.access, nil
}

// ActingIdentity returns the identity the tree was created for.
func (t *Tree) ActingIdentity(ctx context.Context) (string, error) {
	return t.actor, nil
}
