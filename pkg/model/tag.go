package model

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// DateLayout is the calendar date format accepted and rendered for date tags.
const DateLayout = "2006-01-02"

// TagKind identifies the coerced type of a tag value.
type TagKind int

const (
	TagString TagKind = iota
	TagNumber
	TagBool
	TagDate
)

// Tag is a typed key/value pair extracted from a task description.
type Tag struct {
	Key  string
	Kind TagKind
	Str  string
	Num  float64
	Bool bool
	Date time.Time
}

// StringTag returns a string valued tag.
func StringTag(key, value string) Tag { return Tag{Key: key, Kind: TagString, Str: value} }

// NumberTag returns a numeric tag.
func NumberTag(key string, value float64) Tag { return Tag{Key: key, Kind: TagNumber, Num: value} }

// BoolTag returns a boolean tag.
func BoolTag(key string, value bool) Tag { return Tag{Key: key, Kind: TagBool, Bool: value} }

// DateTag returns a date tag.
func DateTag(key string, value time.Time) Tag { return Tag{Key: key, Kind: TagDate, Date: value} }

// String renders the tag value as a mirror cell.
func (t Tag) String() string {
	switch t.Kind {
	case TagNumber:
		return strconv.FormatFloat(t.Num, 'f', -1, 64)
	case TagBool:
		if t.Bool {
			return "TRUE"
		}
		return "FALSE"
	case TagDate:
		return t.Date.Format(DateLayout)
	default:
		return t.Str
	}
}

// TagSet accumulates tag keys discovered across tasks. Safe for concurrent use.
type TagSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewTagSet returns an empty TagSet.
func NewTagSet() *TagSet {
	return &TagSet{keys: make(map[string]struct{})}
}

// AddTags merges the keys of tags into the set.
func (s *TagSet) AddTags(tags map[string]Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range tags {
		s.keys[k] = struct{}{}
	}
}

// Sorted returns the keys in lexicographic order.
func (s *TagSet) Sorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
