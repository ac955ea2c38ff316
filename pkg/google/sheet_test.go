package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/plannersync/pkg/colors"
	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

func TestColumnName(t *testing.T) {
	tests := map[int]string{
		0:   "A",
		5:   "F",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		51:  "AZ",
		52:  "BA",
		701: "ZZ",
		702: "AAA",
	}

	for in, exp := range tests {
		assert.Equal(t, exp, columnName(in), "column %d", in)
	}
}

func TestA1QuotesSheetName(t *testing.T) {
	m := &SheetMirror{sheetName: "Bob's tasks"}
	assert.Equal(t, "'Bob''s tasks'!A2:ZZ", m.a1("A2:ZZ"))
}

// fakeSheets serves the subset of the Sheets API used by SheetMirror.
type fakeSheets struct {
	header  []any
	rows    [][]any
	updates map[string][][]any
	// calls records every write in order, e.g. "clear 1:1" or "update A2".
	calls   []string
	batches []map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && !strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Other"}},
				map[string]any{"properties": map[string]any{"sheetId": 42, "title": "Tasks"}},
			},
		})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "1:1"):
		_ = json.NewEncoder(w).Encode(map[string]any{"values": [][]any{f.header}})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	case r.Method == http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		ref := path[strings.LastIndex(path, "!")+1:]
		if f.updates != nil {
			f.updates[ref] = vr.Values
		}
		f.calls = append(f.calls, "update "+ref)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		ref := strings.TrimSuffix(path[strings.LastIndex(path, "!")+1:], ":clear")
		f.calls = append(f.calls, "clear "+ref)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.batches = append(f.batches, body)
		f.calls = append(f.calls, "batchUpdate")
		_ = json.NewEncoder(w).Encode(map[string]any{})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestService(t *testing.T, h http.Handler) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return svc
}

func TestNewSheetMirror(t *testing.T) {
	tests := map[string]struct {
		sheet      string
		expSheetID int64
		expErr     error
	}{
		"An existing tab should be resolved.": {
			sheet:      "Tasks",
			expSheetID: 42,
		},
		"A missing tab should fail.": {
			sheet:  "Nope",
			expErr: model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(t, &fakeSheets{})

			m, err := NewSheetMirror(context.Background(), svc, "sid", test.sheet, log.Noop)

			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expSheetID, m.sheetID)
		})
	}
}

func TestSheetMirrorReadAndSetCell(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	fake := &fakeSheets{
		header:  []any{"Task ID", "Task Title", "Status", "ETag"},
		rows:    [][]any{{"t1", "Pay", "Started", "e1"}, {}, {"t2", "Call"}},
		updates: map[string][][]any{},
	}
	m, err := NewSheetMirror(ctx, newTestService(t, fake), "sid", "Tasks", log.Noop)
	require.NoError(err)

	header, err := m.ReadHeader(ctx)
	require.NoError(err)
	assert.Equal([]string{"Task ID", "Task Title", "Status", "ETag"}, header)

	rows, err := m.ReadRows(ctx)
	require.NoError(err)
	assert.Equal([][]string{{"t1", "Pay", "Started", "e1"}, {}, {"t2", "Call"}}, rows)

	require.NoError(m.SetCell(ctx, "ETag", 2, "e2+"))
	assert.Equal([][]any{{"e2+"}}, fake.updates["D4"])

	err = m.SetCell(ctx, "Missing", 0, "x")
	assert.ErrorIs(err, model.ErrNotFound)
}

// repeatCell returns the single RepeatCell request of a recorded batch update.
func repeatCell(t *testing.T, batch map[string]any) (gridRange, background map[string]any) {
	t.Helper()
	reqs, ok := batch["requests"].([]any)
	require.True(t, ok)
	require.Len(t, reqs, 1)
	rc := reqs[0].(map[string]any)["repeatCell"].(map[string]any)
	assert.Equal(t, "userEnteredFormat.backgroundColor", rc["fields"])
	bg := rc["cell"].(map[string]any)["userEnteredFormat"].(map[string]any)["backgroundColor"].(map[string]any)
	return rc["range"].(map[string]any), bg
}

func TestSheetMirrorReplaceHeader(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{updates: map[string][][]any{}}
	m, err := NewSheetMirror(ctx, newTestService(t, fake), "sid", "Tasks", log.Noop)
	require.NoError(t, err)

	require.NoError(t, m.ReplaceHeader(ctx, []string{"Task ID", "ETag"}))

	assert.Equal(t, []string{"clear 1:1", "update A1"}, fake.calls)
	assert.Equal(t, [][]any{{"Task ID", "ETag"}}, fake.updates["A1"])
}

func TestSheetMirrorReplaceData(t *testing.T) {
	tests := map[string]struct {
		sheet      string
		rows       [][]string
		expSheetID float64
		expCalls   []string
		expUpdate  [][]any
	}{
		"Rows should be written after clearing values and highlights.": {
			sheet:      "Tasks",
			rows:       [][]string{{"t1", "Pay"}, {"t2"}},
			expSheetID: 42,
			expCalls:   []string{"clear A2:ZZ", "batchUpdate", "update A2"},
			expUpdate:  [][]any{{"t1", "Pay"}, {"t2"}},
		},
		"No rows should only clear.": {
			sheet:      "Tasks",
			expSheetID: 42,
			expCalls:   []string{"clear A2:ZZ", "batchUpdate"},
		},
		"The first tab id should still be sent.": {
			sheet:      "Other",
			rows:       [][]string{{"t1"}},
			expSheetID: 0,
			expCalls:   []string{"clear A2:ZZ", "batchUpdate", "update A2"},
			expUpdate:  [][]any{{"t1"}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			fake := &fakeSheets{updates: map[string][][]any{}}
			m, err := NewSheetMirror(ctx, newTestService(t, fake), "sid", test.sheet, log.Noop)
			require.NoError(err)

			require.NoError(m.ReplaceData(ctx, test.rows))

			assert.Equal(test.expCalls, fake.calls)
			assert.Equal(test.expUpdate, fake.updates["A2"])

			require.Len(fake.batches, 1)
			gr, bg := repeatCell(t, fake.batches[0])
			// Open ended: every data row below the header, no end row.
			assert.Equal(map[string]any{"sheetId": test.expSheetID, "startRowIndex": float64(1)}, gr)
			assert.Equal(map[string]any{"red": float64(1), "green": float64(1), "blue": float64(1)}, bg)
		})
	}
}

func TestSheetMirrorSetRowColor(t *testing.T) {
	tests := map[string]struct {
		row      int
		color    colors.RGB
		expStart float64
		expEnd   float64
		expBg    map[string]any
	}{
		"The first data row should be the second sheet row.": {
			row:      0,
			color:    colors.Clear,
			expStart: 1,
			expEnd:   2,
			expBg:    map[string]any{"red": float64(1), "green": float64(1), "blue": float64(1)},
		},
		"A later row should be offset by the header.": {
			row:      4,
			color:    colors.RGB{R: 255},
			expStart: 5,
			expEnd:   6,
			expBg:    map[string]any{"red": float64(1), "green": float64(0), "blue": float64(0)},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			fake := &fakeSheets{}
			m, err := NewSheetMirror(ctx, newTestService(t, fake), "sid", "Tasks", log.Noop)
			require.NoError(err)

			require.NoError(m.SetRowColor(ctx, test.row, test.color))

			require.Len(fake.batches, 1)
			gr, bg := repeatCell(t, fake.batches[0])
			assert.Equal(map[string]any{"sheetId": float64(42), "startRowIndex": test.expStart, "endRowIndex": test.expEnd}, gr)
			assert.Equal(test.expBg, bg)
		})
	}
}
