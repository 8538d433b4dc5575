package filter

import "math"

// TimeRange is a half-open interval [Start, End) in milliseconds.
type TimeRange struct {
	Start float64
	End   float64
}

// FullRange covers every sample.
func FullRange() TimeRange {
	return TimeRange{Start: math.Inf(-1), End: math.Inf(1)}
}

// Intersect clamps r to other.
func (r TimeRange) Intersect(other TimeRange) TimeRange {
	out := r
	if other.Start > out.Start {
		out.Start = other.Start
	}
	if other.End < out.End {
		out.End = other.End
	}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// PreviewSelection is the transient range selection held by the UI
// collaborator, applied on top of the committed ranges.
type PreviewSelection struct {
	HasSelection   bool
	SelectionStart float64
	SelectionEnd   float64
}

// EffectiveRange folds an oldest-first list of committed ranges and an
// optional preview selection into the single range the pipeline filters by.
// Committed ranges nest, so the result is their intersection; in practice
// that is the newest range clamped to its ancestors.
func EffectiveRange(committed []TimeRange, preview PreviewSelection) TimeRange {
	out := FullRange()
	for _, r := range committed {
		out = out.Intersect(r)
	}
	if preview.HasSelection {
		out = out.Intersect(TimeRange{Start: preview.SelectionStart, End: preview.SelectionEnd})
	}
	return out
}
