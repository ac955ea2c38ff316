package google

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/plannersync/pkg/colors"
	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

// lastColumn bounds every data range read or cleared.
const lastColumn = "ZZ"

// rawInput stores values verbatim so reads return exactly what was written.
const rawInput = "RAW"

// SheetMirror is a mirror.Mirror stored in one tab of a Google spreadsheet.
// Row 1 is the header, data starts at row 2.
type SheetMirror struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
	logger        log.Logger
}

func (m *SheetMirror) ReadHeader(ctx context.Context) ([]string, error) {
	resp, err := m.srv.Spreadsheets.Values.Get(m.spreadsheetID, m.a1("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

func (m *SheetMirror) ReadRows(ctx context.Context) ([][]string, error) {
	resp, err := m.srv.Spreadsheets.Values.Get(m.spreadsheetID, m.a1("A2:"+lastColumn)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read rows: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		rows = append(rows, toStrings(r))
	}
	return rows, nil
}

func (m *SheetMirror) ReplaceHeader(ctx context.Context, columns []string) error {
	if _, err := m.srv.Spreadsheets.Values.Clear(m.spreadsheetID, m.a1("1:1"), &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear header: %w", err)
	}

	vr := &sheets.ValueRange{Values: [][]any{toCells(columns)}}
	if _, err := m.srv.Spreadsheets.Values.Update(m.spreadsheetID, m.a1("A1"), vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}
	return nil
}

func (m *SheetMirror) ReplaceData(ctx context.Context, rows [][]string) error {
	if _, err := m.srv.Spreadsheets.Values.Clear(m.spreadsheetID, m.a1("A2:"+lastColumn), &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear rows: %w", err)
	}

	// Reset every data row highlight, the range is open ended downwards.
	if err := m.paint(ctx, &sheets.GridRange{SheetId: m.sheetID, StartRowIndex: 1, ForceSendFields: []string{"SheetId"}}, colors.Clear); err != nil {
		return fmt.Errorf("unable to reset highlights: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}
	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, toCells(r))
	}
	vr := &sheets.ValueRange{Values: values}
	if _, err := m.srv.Spreadsheets.Values.Update(m.spreadsheetID, m.a1("A2"), vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to write rows: %w", err)
	}

	m.logger.Debugf("wrote %d rows", len(rows))
	return nil
}

func (m *SheetMirror) SetRowColor(ctx context.Context, row int, color colors.RGB) error {
	gr := &sheets.GridRange{
		SheetId:         m.sheetID,
		StartRowIndex:   int64(row) + 1,
		EndRowIndex:     int64(row) + 2,
		ForceSendFields: []string{"SheetId"},
	}
	if err := m.paint(ctx, gr, color); err != nil {
		return fmt.Errorf("unable to highlight row %d: %w", row, err)
	}
	return nil
}

func (m *SheetMirror) SetCell(ctx context.Context, column string, row int, value string) error {
	header, err := m.ReadHeader(ctx)
	if err != nil {
		return err
	}
	col := -1
	for i, c := range header {
		if strings.TrimSpace(c) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return fmt.Errorf("column '%s': %w", column, model.ErrNotFound)
	}

	ref := columnName(col) + strconv.Itoa(row+2)
	vr := &sheets.ValueRange{Values: [][]any{{value}}}
	if _, err := m.srv.Spreadsheets.Values.Update(m.spreadsheetID, m.a1(ref), vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to write cell %s: %w", ref, err)
	}
	return nil
}

// paint sets the background of every cell in gr.
func (m *SheetMirror) paint(ctx context.Context, gr *sheets.GridRange, color colors.RGB) error {
	r, g, b := color.Float()
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gr,
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{
							Red: r, Green: g, Blue: b,
							ForceSendFields: []string{"Red", "Green", "Blue"},
						},
					},
				},
				Fields: "userEnteredFormat.backgroundColor",
			},
		}},
	}
	_, err := m.srv.Spreadsheets.BatchUpdate(m.spreadsheetID, req).Context(ctx).Do()
	return err
}

// a1 prefixes ref with the quoted sheet title.
func (m *SheetMirror) a1(ref string) string {
	return "'" + strings.ReplaceAll(m.sheetName, "'", "''") + "'!" + ref
}

// columnName converts a zero-based column index to its A1 letters: 0 is A,
// 25 is Z, 26 is AA.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
