package mirror

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/harrisonrobin/plannersync/pkg/colors"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

// Memory is an in-memory Mirror.
type Memory struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	colors map[int]colors.RGB
}

// NewMemory returns a Memory mirror holding header and rows.
func NewMemory(header []string, rows [][]string) *Memory {
	m := &Memory{colors: make(map[int]colors.RGB)}
	m.header = append([]string(nil), header...)
	m.rows = copyRows(rows)
	return m
}

func (m *Memory) ReadHeader(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.header...), nil
}

func (m *Memory) ReadRows(_ context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRows(trimTrailingEmpty(m.rows)), nil
}

func (m *Memory) ReplaceHeader(_ context.Context, columns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.header = append([]string(nil), columns...)
	return nil
}

func (m *Memory) ReplaceData(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = copyRows(rows)
	m.colors = make(map[int]colors.RGB)
	return nil
}

func (m *Memory) SetRowColor(_ context.Context, row int, color colors.RGB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row < 0 || row >= len(m.rows) {
		return fmt.Errorf("row %d out of range: %w", row, model.ErrNotValid)
	}
	m.colors[row] = color
	return nil
}

func (m *Memory) SetCell(_ context.Context, column string, row int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col := -1
	for i, c := range m.header {
		if strings.TrimSpace(c) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return fmt.Errorf("column %q: %w", column, model.ErrNotFound)
	}
	if row < 0 || row >= len(m.rows) {
		return fmt.Errorf("row %d out of range: %w", row, model.ErrNotValid)
	}
	for len(m.rows[row]) <= col {
		m.rows[row] = append(m.rows[row], "")
	}
	m.rows[row][col] = value
	return nil
}

// Colors returns a copy of the row highlights.
func (m *Memory) Colors() map[int]colors.RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]colors.RGB, len(m.colors))
	for k, v := range m.colors {
		out[k] = v
	}
	return out
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// trimTrailingEmpty drops the empty rows after the last populated one.
func trimTrailingEmpty(rows [][]string) [][]string {
	last := len(rows)
	for last > 0 && isEmptyRow(rows[last-1]) {
		last--
	}
	return rows[:last]
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
