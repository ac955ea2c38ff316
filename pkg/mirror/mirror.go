// Package mirror defines the local tabular mirror of the remote task store and
// the mapping between its rows and tasks.
package mirror

import (
	"context"

	"github.com/harrisonrobin/plannersync/pkg/colors"
)

// Reader reads the current mirror state.
type Reader interface {
	// ReadHeader returns the header row. An empty mirror returns no columns.
	ReadHeader(ctx context.Context) ([]string, error)
	// ReadRows returns the data rows up to the last populated one. Rows may
	// be shorter than the header.
	ReadRows(ctx context.Context) ([][]string, error)
}

// Writer mutates the mirror. Row arguments are zero-based data row positions
// (the header is not counted).
type Writer interface {
	ReplaceHeader(ctx context.Context, columns []string) error
	// ReplaceData clears every data row and highlight and writes rows.
	ReplaceData(ctx context.Context, rows [][]string) error
	SetRowColor(ctx context.Context, row int, color colors.RGB) error
	SetCell(ctx context.Context, column string, row int, value string) error
}

// Mirror is a readable and writable mirror. Implementations are not safe for
// concurrent writers; a sync run needs exclusive access.
type Mirror interface {
	Reader
	Writer
}
