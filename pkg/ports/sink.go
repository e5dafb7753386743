package ports

import (
	"context"

	"github.com/aretw0/sharewalk/pkg/domain"
)

// RecordWriter appends records in discovery order.
type RecordWriter interface {
	Append(ctx context.Context, rec domain.Record) error
}

// OutputTable is one append-only report plus its status cells.
type OutputTable interface {
	RecordWriter

	// Status reads the status cells.
	Status(ctx context.Context) (domain.RunMetadata, error)

	// SetStatus overwrites the status cells.
	SetStatus(ctx context.Context, meta domain.RunMetadata) error

	// Records returns every row in discovery order.
	Records(ctx context.Context) ([]domain.Record, error)
}

// OutputStore hands out output tables.
type OutputStore interface {
	// Create begins a new table for a fresh traversal attempt.
	Create(ctx context.Context, meta domain.RunMetadata) (OutputTable, error)

	// Current returns the most recently created table.
	// Returns domain.ErrNoOutputTable if none exists.
	Current(ctx context.Context) (OutputTable, error)
}
