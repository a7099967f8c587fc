package contact

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Tag is one entry of the fixed contact tag vocabulary.
type Tag uint8

const (
	TagFamily Tag = iota
	TagWork
	TagClient
	TagVendor
	TagFriend

	numTags
)

var tagNames = [numTags]string{"Family", "Work", "Client", "Vendor", "Friend"}

// AllTags lists the vocabulary in display order.
func AllTags() []Tag {
	out := make([]Tag, 0, numTags)
	for t := Tag(0); t < numTags; t++ {
		out = append(out, t)
	}
	return out
}

func (t Tag) String() string {
	if t >= numTags {
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
	return tagNames[t]
}

// ParseTag matches a vocabulary name, ignoring case and surrounding space.
func ParseTag(s string) (Tag, bool) {
	s = strings.TrimSpace(s)
	for t := Tag(0); t < numTags; t++ {
		if strings.EqualFold(tagNames[t], s) {
			return t, true
		}
	}
	return 0, false
}

// TagSet is a set of tags. The zero value is empty.
type TagSet uint8

func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

// ParseTagSet builds a set from names. The first unknown name is returned with ok=false.
func ParseTagSet(names []string) (set TagSet, unknown string, ok bool) {
	for _, n := range names {
		t, found := ParseTag(n)
		if !found {
			return 0, n, false
		}
		set = set.With(t)
	}
	return set, "", true
}

func (s TagSet) With(t Tag) TagSet {
	if t >= numTags {
		return s
	}
	return s | 1<<t
}

func (s TagSet) Has(t Tag) bool { return t < numTags && s&(1<<t) != 0 }

func (s TagSet) Empty() bool { return s == 0 }

// Intersects reports whether s and o share at least one tag.
func (s TagSet) Intersects(o TagSet) bool { return s&o != 0 }

func (s TagSet) Tags() []Tag {
	var out []Tag
	for t := Tag(0); t < numTags; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TagSet) Strings() []string {
	out := make([]string, 0, numTags)
	for _, t := range s.Tags() {
		out = append(out, t.String())
	}
	return out
}

func (s TagSet) String() string { return strings.Join(s.Strings(), ", ") }

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *TagSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	set, unknown, ok := ParseTagSet(names)
	if !ok {
		return &ValidationError{Field: "tags", Message: fmt.Sprintf("Unknown tag %q", unknown)}
	}
	*s = set
	return nil
}

// Value stores the set as a postgres text[].
func (s TagSet) Value() (driver.Value, error) {
	return pq.StringArray(s.Strings()).Value()
}

// Scan reads a postgres text[]. Names outside the vocabulary are dropped.
func (s *TagSet) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	var set TagSet
	for _, n := range arr {
		if t, ok := ParseTag(n); ok {
			set = set.With(t)
		}
	}
	*s = set
	return nil
}
