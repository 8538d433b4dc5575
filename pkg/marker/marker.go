// Package marker filters a thread's marker stream for the timeline and
// network views. A search string is a comma-separated list of OR tokens,
// matched case-insensitively against the marker name, its category name and
// the fields of its typed payload.
package marker

import (
	"strings"

	"github.com/samber/lo"

	"github.com/grafana/tracelens/pkg/model"
)

// Search is a parsed search string. The zero value matches everything.
type Search struct {
	tokens []string
}

func NewSearch(s string) Search {
	tokens := lo.FilterMap(strings.Split(s, ","), func(tok string, _ int) (string, bool) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		return tok, tok != ""
	})
	return Search{tokens: tokens}
}

// Matches reports whether any token is a substring of any field.
func (s Search) Matches(fields ...string) bool {
	if len(s.tokens) == 0 {
		return true
	}
	for _, field := range fields {
		field = strings.ToLower(field)
		for _, tok := range s.tokens {
			if strings.Contains(field, tok) {
				return true
			}
		}
	}
	return false
}

func searchFields(t *model.Thread, i int32) []string {
	fields := []string{t.Markers.Name[i]}
	if category := t.Markers.Category[i]; category != model.NoIndex && int(category) < len(t.Categories) {
		fields = append(fields, t.Categories[category].Name)
	}
	if payload := t.Markers.Payload[i]; payload != nil {
		fields = append(fields, payload.Tag())
		fields = append(fields, payload.SearchFields()...)
	}
	return fields
}

// FilterIndexes returns the marker indexes matching the search, in marker
// order. The result is consumed together with MarkerTable.MarkerAt as the
// index-to-marker lookup.
func FilterIndexes(t *model.Thread, search string) []int32 {
	s := NewSearch(search)
	var out []int32
	for i := int32(0); i < int32(t.Markers.Len()); i++ {
		if s.Matches(searchFields(t, i)...) {
			out = append(out, i)
		}
	}
	return out
}

// FilterNetworkIndexes is FilterIndexes restricted to markers carrying a
// network payload, for the network panel's own search box.
func FilterNetworkIndexes(t *model.Thread, search string) []int32 {
	s := NewSearch(search)
	var out []int32
	for i := int32(0); i < int32(t.Markers.Len()); i++ {
		if _, ok := t.Markers.Payload[i].(*model.NetworkPayload); !ok {
			continue
		}
		if s.Matches(searchFields(t, i)...) {
			out = append(out, i)
		}
	}
	return out
}

// InRange keeps the indexes of markers overlapping the half-open interval
// [start, end); an instant marker overlaps when its timestamp falls inside.
func InRange(t *model.Thread, indexes []int32, start, end float64) []int32 {
	return lo.Filter(indexes, func(i int32, _ int) bool {
		mStart := t.Markers.Start[i]
		mEnd := t.Markers.End[i]
		if model.IsNull(mEnd) {
			return mStart >= start && mStart < end
		}
		return mStart < end && mEnd >= start
	})
}
