// Package filter narrows a thread's samples to a committed time range and
// its stacks to a source-implementation class. Both operations are pure:
// they derive new tables and never touch their inputs.
package filter

import (
	"sort"

	"github.com/grafana/tracelens/pkg/model"
)

// Implementation selects which class of frames survives stack filtering.
type Implementation string

const (
	ImplementationCombined Implementation = "combined"
	ImplementationJS       Implementation = "js"
	ImplementationCpp      Implementation = "cpp"
)

// FrameMatches reports whether a frame survives the given implementation
// filter.
func FrameMatches(t *model.Thread, impl Implementation, frame int32) bool {
	switch impl {
	case ImplementationJS:
		return t.Funcs.IsJS[t.Frames.Func[frame]]
	case ImplementationCpp:
		return !t.Funcs.IsJS[t.Frames.Func[frame]]
	default:
		return true
	}
}

// ByImplementation rewrites the thread's stack table so only frames matching
// the filter remain. Skipped ancestor frames are removed; a stack whose
// entire ancestry is skipped is re-rooted. Applying the same filter twice is
// a no-op: a table that only contains matching frames maps onto itself.
func ByImplementation(t *model.Thread, impl Implementation) *model.Thread {
	if impl == ImplementationCombined || impl == "" {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		mappedPrefix := model.NoIndex
		if prefix := t.Stacks.Prefix[i]; prefix != model.NoIndex {
			mappedPrefix = stackMap[prefix]
		}
		if FrameMatches(t, impl, t.Stacks.Frame[i]) {
			stackMap[i] = stacks.Append(t.Stacks.Frame[i], mappedPrefix)
		} else {
			// The frame vanishes; descendants attach to the nearest kept
			// ancestor, or become roots.
			stackMap[i] = mappedPrefix
		}
	}
	return t.WithStacks(stacks, stackMap)
}

// ToRange returns a thread whose samples fall in the half-open interval
// [r.Start, r.End). Samples without a stack are retained as idle time.
// Sample columns are sliced, not copied; sample times are nondecreasing by
// contract.
func ToRange(t *model.Thread, r TimeRange) *model.Thread {
	samples := &t.Samples
	begin := sort.SearchFloat64s(samples.Time, r.Start)
	end := sort.Search(samples.Len(), func(i int) bool { return samples.Time[i] >= r.End })

	derived := *t
	derived.Samples = model.SamplesTable{
		Time:       samples.Time[begin:end],
		Stack:      samples.Stack[begin:end],
		WeightType: samples.WeightType,
	}
	if samples.Weight != nil {
		derived.Samples.Weight = samples.Weight[begin:end]
	}
	if samples.Responsiveness != nil {
		derived.Samples.Responsiveness = samples.Responsiveness[begin:end]
	}
	if samples.EventDelay != nil {
		derived.Samples.EventDelay = samples.EventDelay[begin:end]
	}
	return &derived
}
