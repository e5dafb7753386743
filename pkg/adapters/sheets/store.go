// Package sheets keeps output tables in a Google Sheets spreadsheet.
//
// Each fresh traversal attempt gets its own tab, inserted first so the newest
// attempt is the one an operator sees on open. A tab holds the status cells
// in its top rows and the records below a header row.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	statusMarker = "Run ID"
	statusRange  = "A1:B5"
	headerRow    = 7
	valueInput   = "RAW"
)

var recordHeader = []interface{}{"Path", "Kind", "Classification"}

// Store implements ports.OutputStore on one spreadsheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store authenticated with a credentials file.
func New(ctx context.Context, credentialsFile, spreadsheetID string, opts ...Option) (*Store, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return NewFromService(svc, spreadsheetID, opts...), nil
}

// NewFromService wraps an existing Sheets service.
func NewFromService(svc *sheets.Service, spreadsheetID string, opts ...Option) *Store {
	s := &Store{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a tab at the front of the spreadsheet and writes its status
// cells and record header.
func (s *Store) Create(ctx context.Context, meta domain.RunMetadata) (ports.OutputTable, error) {
	title := tabTitle(meta)
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:           title,
					Index:           0,
					ForceSendFields: []string{"Index"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", title, err)
	}

	t := &Table{store: s, title: title}
	if err := t.SetStatus(ctx, meta); err != nil {
		return nil, err
	}
	header := &sheets.ValueRange{Values: [][]interface{}{recordHeader}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, t.cell(fmt.Sprintf("A%d:C%d", headerRow, headerRow)), header).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("write record header: %w", err)
	}
	s.logger.Info("output tab created", "title", title)
	return t, nil
}

// Current returns the first tab when it carries status cells.
func (s *Store) Current(ctx context.Context) (ports.OutputTable, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	var first *sheets.SheetProperties
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		if first == nil || sh.Properties.Index < first.Index {
			first = sh.Properties
		}
	}
	if first == nil {
		return nil, domain.ErrNoOutputTable
	}

	t := &Table{store: s, title: first.Title}
	rows, err := t.read(ctx, statusRange)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 || fmt.Sprint(rows[0][0]) != statusMarker {
		return nil, domain.ErrNoOutputTable
	}
	return t, nil
}

// Table is one tab.
type Table struct {
	store *Store
	title string
}

func (t *Table) cell(a1 string) string {
	return "'" + strings.ReplaceAll(t.title, "'", "''") + "'!" + a1
}

func (t *Table) read(ctx context.Context, a1 string) ([][]interface{}, error) {
	vr, err := t.store.svc.Spreadsheets.Values.Get(t.store.spreadsheetID, t.cell(a1)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a1, err)
	}
	return vr.Values, nil
}

// Append adds one row below the last record.
func (t *Table) Append(ctx context.Context, rec domain.Record) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{rec.Path, string(rec.Kind), string(rec.Classification)}}}
	_, err := t.store.svc.Spreadsheets.Values.Append(t.store.spreadsheetID, t.cell(fmt.Sprintf("A%d:C", headerRow)), vr).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Records reads every row below the header.
func (t *Table) Records(ctx context.Context) ([]domain.Record, error) {
	rows, err := t.read(ctx, fmt.Sprintf("A%d:C", headerRow+1))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 cells, got %d", headerRow+1+i, len(row))
		}
		kind, err := domain.ParseKind(fmt.Sprint(row[1]))
		if err != nil {
			return nil, err
		}
		class, err := domain.ParseClassification(fmt.Sprint(row[2]))
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Record{Path: fmt.Sprint(row[0]), Kind: kind, Classification: class})
	}
	return out, nil
}

// Status parses the status cells.
func (t *Table) Status(ctx context.Context) (domain.RunMetadata, error) {
	rows, err := t.read(ctx, statusRange)
	if err != nil {
		return domain.RunMetadata{}, err
	}
	cells := make([]string, 5)
	for i := range cells {
		if i < len(rows) && len(rows[i]) > 1 {
			cells[i] = fmt.Sprint(rows[i][1])
		}
	}

	var meta domain.RunMetadata
	meta.RunID = cells[0]
	if meta.StartedAt, err = time.Parse(time.RFC3339Nano, cells[1]); err != nil {
		return domain.RunMetadata{}, fmt.Errorf("parse started at: %w", err)
	}
	if meta.LastRunAt, err = time.Parse(time.RFC3339Nano, cells[2]); err != nil {
		return domain.RunMetadata{}, fmt.Errorf("parse last run at: %w", err)
	}
	if meta.Invocations, err = strconv.Atoi(cells[3]); err != nil {
		return domain.RunMetadata{}, fmt.Errorf("parse invocations: %w", err)
	}
	meta.Completion = domain.Completion(cells[4])
	return meta, nil
}

// SetStatus overwrites the status cells.
func (t *Table) SetStatus(ctx context.Context, meta domain.RunMetadata) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{
		{statusMarker, meta.RunID},
		{"Started", meta.StartedAt.UTC().Format(time.RFC3339Nano)},
		{"Last run", meta.LastRunAt.UTC().Format(time.RFC3339Nano)},
		{"Invocations", meta.Invocations},
		{"Completed", string(meta.Completion)},
	}}
	_, err := t.store.svc.Spreadsheets.Values.Update(t.store.spreadsheetID, t.cell(statusRange), vr).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

func tabTitle(meta domain.RunMetadata) string {
	id := meta.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return meta.StartedAt.UTC().Format("2006-01-02 15:04") + " " + id
}
