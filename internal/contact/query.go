package contact

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortByName      SortKey = "name"
	SortByCreatedAt SortKey = "created_at"
)

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.TrimSpace(s)) {
	case "", SortByName:
		return SortByName, nil
	case SortByCreatedAt:
		return SortByCreatedAt, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Query is the list view state picked in the UI.
type Query struct {
	Search string
	Tags   TagSet
	Sort   SortKey
}

// Project filters contacts by search term, then by tags, then sorts them.
// The input slice is not modified.
func Project(contacts []Contact, q Query) []Contact {
	term := strings.ToLower(q.Search)

	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if !matchesSearch(c, term) {
			continue
		}
		if !q.Tags.Empty() && !c.Tags.Intersects(q.Tags) {
			continue
		}
		out = append(out, c)
	}

	switch q.Sort {
	case SortByCreatedAt:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default:
		col := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	}
	return out
}

func matchesSearch(c Contact, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Email), term) ||
		(c.Company != "" && strings.Contains(strings.ToLower(c.Company), term))
}
