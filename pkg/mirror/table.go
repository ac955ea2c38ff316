package mirror

import (
	"strings"

	"github.com/harrisonrobin/plannersync/pkg/model"
)

// Base column names.
const (
	ColumnID     = "Task ID"
	ColumnPlanID = "Plan ID"
	ColumnPlan   = "Plan Name"
	ColumnBucket = "Bucket Name"
	ColumnTitle  = "Task Title"
	ColumnStatus = "Status"
	ColumnETag   = "ETag"
)

// BaseColumns are always present in the mirror header, in this order when the
// mirror starts empty.
var BaseColumns = []string{ColumnID, ColumnPlan, ColumnBucket, ColumnTitle, ColumnStatus, ColumnETag}

// fieldColumns are filled from task fields, never from tags.
var fieldColumns = map[string]bool{
	ColumnID: true, ColumnPlanID: true, ColumnPlan: true, ColumnBucket: true,
	ColumnTitle: true, ColumnStatus: true, ColumnETag: true,
}

// IsFieldColumn reports whether name is filled from a task field.
func IsFieldColumn(name string) bool {
	return fieldColumns[name]
}

// Header is the ordered, append-only column set of the mirror.
type Header struct {
	columns []string
	pos     map[string]int
}

// NewHeader builds a header from the mirror's current columns. Blank and
// repeated names keep their position but only the first occurrence of a name
// is addressable.
func NewHeader(columns []string) *Header {
	h := &Header{pos: make(map[string]int)}
	for _, c := range columns {
		h.columns = append(h.columns, c)
		name := strings.TrimSpace(c)
		if _, ok := h.pos[name]; !ok && name != "" {
			h.pos[name] = len(h.columns) - 1
		}
	}
	return h
}

// Columns returns a copy of the column names.
func (h *Header) Columns() []string {
	return append([]string(nil), h.columns...)
}

// Index returns the position of column name.
func (h *Header) Index(name string) (int, bool) {
	i, ok := h.pos[name]
	return i, ok
}

// Extend appends the names not yet present, in the given order. It returns
// true when the header grew.
func (h *Header) Extend(names ...string) bool {
	grew := false
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := h.pos[n]; ok {
			continue
		}
		h.columns = append(h.columns, n)
		h.pos[n] = len(h.columns) - 1
		grew = true
	}
	return grew
}

// Cell returns the value of column name in cells, or "" when absent.
func (h *Header) Cell(cells []string, name string) string {
	i, ok := h.pos[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// Record maps a data row to a MirrorRecord.
func (h *Header) Record(row int, cells []string) model.MirrorRecord {
	rec := model.MirrorRecord{
		Row:          row,
		ID:           h.Cell(cells, ColumnID),
		Title:        h.Cell(cells, ColumnTitle),
		Status:       model.Status(h.Cell(cells, ColumnStatus)),
		VersionToken: h.Cell(cells, ColumnETag),
		Cells:        make(map[string]string, len(h.pos)),
	}
	for name := range h.pos {
		rec.Cells[name] = h.Cell(cells, name)
	}
	return rec
}

// Row renders task as a data row. Columns with no matching field or tag are
// left empty.
func (h *Header) Row(task model.RemoteTask) []string {
	row := make([]string, len(h.columns))
	for i, c := range h.columns {
		name := strings.TrimSpace(c)
		if h.pos[name] != i {
			continue
		}
		switch name {
		case ColumnID:
			row[i] = task.ID
		case ColumnPlanID:
			row[i] = task.PlanID
		case ColumnPlan:
			row[i] = task.PlanName
		case ColumnBucket:
			row[i] = task.BucketName
		case ColumnTitle:
			row[i] = task.Title
		case ColumnStatus:
			row[i] = string(task.Status())
		case ColumnETag:
			row[i] = task.VersionToken
		default:
			if tag, ok := task.Tags[name]; ok {
				row[i] = tag.String()
			}
		}
	}
	return row
}
