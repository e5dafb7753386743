package memory

import (
	"context"
	"sync"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
)

// Table implements ports.OutputTable in memory.
type Table struct {
	mu      sync.RWMutex
	records []domain.Record
	status  domain.RunMetadata

	// FailAppend, when set, is returned by Append. Used to simulate a broken sink.
	FailAppend error
}

// Append adds a record at the end of the table.
func (t *Table) Append(ctx context.Context, rec domain.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailAppend != nil {
		return t.FailAppend
	}
	t.records = append(t.records, rec)
	return nil
}

// Records returns a copy of the rows in discovery order.
func (t *Table) Records(ctx context.Context) ([]domain.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Record(nil), t.records...), nil
}

// Status returns the status cells.
func (t *Table) Status(ctx context.Context) (domain.RunMetadata, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, nil
}

// SetStatus overwrites the status cells.
func (t *Table) SetStatus(ctx context.Context, meta domain.RunMetadata) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = meta
	return nil
}

// Output implements ports.OutputStore in memory.
type Output struct {
	mu     sync.RWMutex
	tables []*Table
}

// NewOutput creates an empty output store.
func NewOutput() *Output {
	return &Output{}
}

// Create begins a new table.
func (o *Output) Create(ctx context.Context, meta domain.RunMetadata) (ports.OutputTable, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := &Table{status: meta}
	o.tables = append(o.tables, t)
	return t, nil
}

// Current returns the latest table.
func (o *Output) Current(ctx context.Context) (ports.OutputTable, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.tables) == 0 {
		return nil, domain.ErrNoOutputTable
	}
	return o.tables[len(o.tables)-1], nil
}

// Tables returns every table created so far, oldest first.
func (o *Output) Tables() []*Table {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]*Table(nil), o.tables...)
}
