package model

// Status is the derived progress label persisted in the mirror.
type Status string

const (
	StatusNotStarted Status = "NotStarted"
	StatusStarted    Status = "Started"
	StatusCompleted  Status = "Completed"
)

// StatusFromPercent derives the status label from a remote percent-complete value.
func StatusFromPercent(percent int) Status {
	switch {
	case percent >= 100:
		return StatusCompleted
	case percent > 0:
		return StatusStarted
	default:
		return StatusNotStarted
	}
}

// Percent maps a status label back to a percent-complete value. The mapping
// is lossy: any partial progress becomes 50 and unknown labels become 0.
func (s Status) Percent() int {
	switch s {
	case StatusCompleted:
		return 100
	case StatusStarted:
		return 50
	default:
		return 0
	}
}

// RemoteTask is a normalized task fetched from the remote store.
type RemoteTask struct {
	ID              string
	PlanID          string
	PlanName        string
	BucketID        string
	BucketName      string
	Title           string
	PercentComplete int
	// VersionToken is opaque: only compare it for equality or echo it back.
	VersionToken string
	Tags         map[string]Tag
}

// Status returns the derived status of the task.
func (t RemoteTask) Status() Status {
	return StatusFromPercent(t.PercentComplete)
}

// MirrorRecord is one data row of the local mirror.
type MirrorRecord struct {
	// Row is the zero-based data row position in the mirror.
	Row          int
	ID           string
	Title        string
	Status       Status
	VersionToken string
	// Cells holds every cell of the row keyed by column name.
	Cells map[string]string
}

// Classification is the compare-mode verdict for a mirror row.
type Classification string

const (
	ClassInSync      Classification = "InSync"
	ClassRemoteNewer Classification = "RemoteNewer"
	ClassLocalNewer  Classification = "LocalNewer"
	ClassConflict    Classification = "Conflict"
)

// Classify returns the classification for the given change flags, conflict first.
func Classify(remoteChanged, localChanged bool) Classification {
	switch {
	case remoteChanged && localChanged:
		return ClassConflict
	case remoteChanged:
		return ClassRemoteNewer
	case localChanged:
		return ClassLocalNewer
	default:
		return ClassInSync
	}
}
