package domain

import "fmt"

// Kind tells whether a record describes a leaf item or a container.
type Kind string

const (
	KindLeaf      Kind = "leaf"
	KindContainer Kind = "container"
)

// Classification is the outcome of the sharing predicate.
type Classification string

const (
	Shared  Classification = "shared"
	Private Classification = "private"
)

// Reportable reports whether nodes with this classification are written out.
func (c Classification) Reportable() bool {
	return c == Shared
}

// Record is one row of the output table. Rows keep discovery order.
type Record struct {
	Path           string         `json:"path"`
	Kind           Kind           `json:"kind"`
	Classification Classification `json:"classification"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.Path, r.Kind, r.Classification)
}

// ParseKind converts a stored kind value.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLeaf, KindContainer:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// ParseClassification converts a stored classification value.
func ParseClassification(s string) (Classification, error) {
	switch Classification(s) {
	case Shared, Private:
		return Classification(s), nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}
