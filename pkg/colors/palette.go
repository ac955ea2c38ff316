// Package colors maps compare-mode classifications to row highlight colors.
package colors

import (
	"fmt"

	"github.com/harrisonrobin/plannersync/pkg/model"
)

// RGB is a row background color.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Float returns the channels in the 0..1 range used by the Sheets API.
func (c RGB) Float() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

var (
	// RemoteNewer is light orange: the remote store has newer data.
	RemoteNewer = RGB{255, 230, 153}
	// LocalNewer is light blue: the mirror has local edits.
	LocalNewer = RGB{189, 215, 238}
	// Conflict is light red: both sides changed.
	Conflict = RGB{248, 203, 173}
	// Clear is white, no highlight.
	Clear = RGB{255, 255, 255}
)

// ForClassification returns the highlight for c. Unknown values clear the row.
func ForClassification(c model.Classification) RGB {
	switch c {
	case model.ClassRemoteNewer:
		return RemoteNewer
	case model.ClassLocalNewer:
		return LocalNewer
	case model.ClassConflict:
		return Conflict
	default:
		return Clear
	}
}
