package domain

// Node is a handle to a tree node, either a container or a leaf item.
// ID is the provider's identity for the node; Name is only a display label.
type Node struct {
	ID   string
	Name string

	// Access is the sharing metadata when the provider fetched it together with
	// the listing. Nil means it must be looked up through a SharingSource.
	Access *Access
}
