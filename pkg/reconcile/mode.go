package reconcile

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/plannersync/pkg/model"
)

// Mode selects the synchronization performed by a run.
type Mode string

const (
	// ModeFull replaces the mirror with the remote snapshot.
	ModeFull Mode = "full"
	// ModeCompare highlights divergence without touching data.
	ModeCompare Mode = "compare"
	// ModePush writes mirror edits back to the remote store.
	ModePush Mode = "push"
)

// Modes lists the accepted modes.
var Modes = []Mode{ModeFull, ModeCompare, ModePush}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeFull, ModeCompare, ModePush:
		return m, nil
	}
	return "", fmt.Errorf("%q, use one of full, compare, push: %w", s, model.ErrUnknownMode)
}
