package domain

// Cursor is an opaque continuation token for a paginated listing.
//
// A nil *Cursor means the listing is exhausted. A Cursor with End set is known
// to yield nothing on resume: the provider returned the last element without a
// next token. Token carries no structure the engine relies on.
type Cursor struct {
	Token string `json:"token"`
	End   bool   `json:"end,omitempty"`
}

// StartCursor returns a cursor positioned before the first element.
func StartCursor() *Cursor {
	return &Cursor{}
}

// EndCursor returns a cursor whose resume yields nothing.
func EndCursor() *Cursor {
	return &Cursor{End: true}
}

// NextCursor converts a provider's next token into the cursor stored on a
// frame after an element was returned.
func NextCursor(next *Cursor) *Cursor {
	if next == nil {
		return EndCursor()
	}
	c := *next
	return &c
}

// Clone returns a copy of the cursor, preserving nil.
func (c *Cursor) Clone() *Cursor {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Equal reports whether two cursors are identical, treating two nils as equal.
func (c *Cursor) Equal(other *Cursor) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return *c == *other
}
