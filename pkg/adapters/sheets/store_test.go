package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	sharesheets "github.com/aretw0/sharewalk/pkg/adapters/sheets"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets serves the subset of the Sheets v4 REST API the store calls.
// Grids are addressed by zero-based row and column.
type fakeSheets struct {
	mu    sync.Mutex
	order []string
	grids map[string][][]interface{}
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{grids: map[string][][]interface{}{}}
}

type a1Range struct {
	title            string
	col0, row0, col1 int
	row1             int // -1 means unbounded
}

func parseRange(s string) a1Range {
	i := strings.LastIndex(s, "'!")
	title := strings.ReplaceAll(s[1:i], "''", "'")
	cells := strings.SplitN(s[i+2:], ":", 2)
	r := a1Range{title: title}
	r.col0, r.row0 = parseCell(cells[0])
	r.col1, r.row1 = parseCell(cells[1])
	return r
}

func parseCell(c string) (col, row int) {
	col = int(c[0] - 'A')
	if len(c) == 1 {
		return col, -1
	}
	n, _ := strconv.Atoi(c[1:])
	return col, n - 1
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	rest := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	id, tail, _ := strings.Cut(rest, "/values/")
	switch {
	case tail == "" && strings.HasSuffix(id, ":batchUpdate"):
		f.batchUpdate(w, r)
	case tail == "":
		f.spreadsheet(w)
	case strings.HasSuffix(tail, ":append"):
		f.appendValues(w, r, parseRange(strings.TrimSuffix(tail, ":append")))
	case r.Method == http.MethodPut:
		f.update(w, r, parseRange(tail))
	default:
		f.get(w, parseRange(tail))
	}
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var req sheets.BatchUpdateSpreadsheetRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	props := req.Requests[0].AddSheet.Properties
	idx := int(props.Index)
	f.order = append(f.order[:idx], append([]string{props.Title}, f.order[idx:]...)...)
	f.grids[props.Title] = nil
	_ = json.NewEncoder(w).Encode(&sheets.BatchUpdateSpreadsheetResponse{
		Replies: []*sheets.Response{{AddSheet: &sheets.AddSheetResponse{Properties: props}}},
	})
}

func (f *fakeSheets) spreadsheet(w http.ResponseWriter) {
	ss := &sheets.Spreadsheet{}
	for i, title := range f.order {
		ss.Sheets = append(ss.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{
			Title: title, Index: int64(i), ForceSendFields: []string{"Index"},
		}})
	}
	_ = json.NewEncoder(w).Encode(ss)
}

func (f *fakeSheets) write(title string, col0, row0 int, values [][]interface{}) {
	grid := f.grids[title]
	for i, row := range values {
		for len(grid) <= row0+i {
			grid = append(grid, nil)
		}
		for j, v := range row {
			for len(grid[row0+i]) <= col0+j {
				grid[row0+i] = append(grid[row0+i], nil)
			}
			grid[row0+i][col0+j] = v
		}
	}
	f.grids[title] = grid
}

func (f *fakeSheets) update(w http.ResponseWriter, r *http.Request, rng a1Range) {
	var vr sheets.ValueRange
	_ = json.NewDecoder(r.Body).Decode(&vr)
	f.write(rng.title, rng.col0, rng.row0, vr.Values)
	_, _ = w.Write([]byte(`{}`))
}

func (f *fakeSheets) appendValues(w http.ResponseWriter, r *http.Request, rng a1Range) {
	var vr sheets.ValueRange
	_ = json.NewDecoder(r.Body).Decode(&vr)
	next := rng.row0
	for i := rng.row0; i < len(f.grids[rng.title]); i++ {
		if len(f.grids[rng.title][i]) > 0 {
			next = i + 1
		}
	}
	f.write(rng.title, rng.col0, next, vr.Values)
	_, _ = w.Write([]byte(`{}`))
}

func (f *fakeSheets) get(w http.ResponseWriter, rng a1Range) {
	grid := f.grids[rng.title]
	last := rng.row1
	if last < 0 || last >= len(grid) {
		last = len(grid) - 1
	}
	var out [][]interface{}
	for i := rng.row0; i <= last; i++ {
		var row []interface{}
		for j := rng.col0; j <= rng.col1 && j < len(grid[i]); j++ {
			row = append(row, grid[i][j])
		}
		out = append(out, row)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	_ = json.NewEncoder(w).Encode(&sheets.ValueRange{Values: out})
}

func newStore(t *testing.T, fake *fakeSheets) *sharesheets.Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return sharesheets.NewFromService(svc, "spreadsheet-1")
}

func TestSheetsStore_Contract(t *testing.T) {
	ports.RunOutputStoreContract(t, newStore(t, newFakeSheets()))
}

func TestSheetsStore_NewestTabFirst(t *testing.T) {
	fake := newFakeSheets()
	store := newStore(t, fake)
	ctx := context.Background()
	start := time.Date(2026, 5, 6, 7, 8, 0, 0, time.UTC)

	_, err := store.Create(ctx, domain.NewRunMetadata("aaaaaaaa-1111", start))
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.NewRunMetadata("bbbbbbbb-2222", start.Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, []string{"2026-05-06 08:08 bbbbbbbb", "2026-05-06 07:08 aaaaaaaa"}, fake.order)
}

func TestSheetsStore_ForeignFirstTab(t *testing.T) {
	fake := newFakeSheets()
	fake.order = []string{"Notes"}
	fake.grids["Notes"] = [][]interface{}{{"hello"}}
	store := newStore(t, fake)

	_, err := store.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoOutputTable)
}

func TestSheetsStore_HeaderLayout(t *testing.T) {
	fake := newFakeSheets()
	store := newStore(t, fake)
	ctx := context.Background()

	table, err := store.Create(ctx, domain.NewRunMetadata("run", time.Now()))
	require.NoError(t, err)
	require.NoError(t, table.Append(ctx, domain.Record{Path: "a.txt", Kind: domain.KindLeaf, Classification: domain.Shared}))

	titles := append([]string(nil), fake.order...)
	sort.Strings(titles)
	grid := fake.grids[titles[0]]
	require.Len(t, grid, 8)
	assert.Equal(t, []interface{}{"Path", "Kind", "Classification"}, grid[6])
	assert.Equal(t, []interface{}{"a.txt", "leaf", "shared"}, grid[7])
}
