package reconcile

import (
	"time"

	"github.com/harrisonrobin/plannersync/pkg/model"
)

// Report summarizes a sync run. It is returned even when the run aborts, with
// the counts collected up to that point.
type Report struct {
	SessionID string
	Mode      Mode
	Duration  time.Duration

	// Fetch.
	Fetched      int
	SkippedNodes int
	ColumnsAdded []string

	// Full mode.
	RowsWritten int

	// Compare mode.
	InSync      int
	RemoteNewer int
	LocalNewer  int
	Conflicts   int
	// Unmatched counts remote tasks with no mirror row.
	Unmatched int

	// Push mode.
	Pushed      int
	Errored     int
	Conflicted  int
	SkippedRows int

	// Errors holds the recovered per-node and per-row failures.
	Errors []error
}

func (r *Report) count(c model.Classification) {
	switch c {
	case model.ClassInSync:
		r.InSync++
	case model.ClassRemoteNewer:
		r.RemoteNewer++
	case model.ClassLocalNewer:
		r.LocalNewer++
	case model.ClassConflict:
		r.Conflicts++
	}
}
