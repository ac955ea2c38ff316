package index

// RowIndex maps task ids to mirror data rows for one sync session. The first
// row carrying an id owns it; later rows with the same id are reported as
// duplicates and never joined.
type RowIndex struct {
	rows       map[string]int
	duplicates map[string][]int
}

// NewRowIndex returns an empty index.
func NewRowIndex() *RowIndex {
	return &RowIndex{
		rows:       make(map[string]int),
		duplicates: make(map[string][]int),
	}
}

// Add registers row for taskID. It returns false when taskID is empty or
// already owned by another row.
func (idx *RowIndex) Add(taskID string, row int) bool {
	if taskID == "" {
		return false
	}
	if _, exists := idx.rows[taskID]; exists {
		idx.duplicates[taskID] = append(idx.duplicates[taskID], row)
		return false
	}
	idx.rows[taskID] = row
	return true
}

// Get returns the row owning taskID.
func (idx *RowIndex) Get(taskID string) (int, bool) {
	row, ok := idx.rows[taskID]
	return row, ok
}

// Len returns the number of indexed ids.
func (idx *RowIndex) Len() int {
	return len(idx.rows)
}

// Duplicates returns the extra rows found per task id.
func (idx *RowIndex) Duplicates() map[string][]int {
	return idx.duplicates
}
