package calltree

import "github.com/grafana/tracelens/pkg/model"

// ComputeTracedTiming derives per-node self/total durations from the deltas
// between consecutive sample times instead of sample weights; the final
// sample's duration is synthesized as the sampling interval. Traced timing
// is mutually exclusive with weighted sampling: when the sample table
// carries an explicit weight type the result is reported as unavailable
// (nil, false) rather than silently wrong.
func ComputeTracedTiming(t *model.Thread, tree *Tree) (*NodeTimes, bool) {
	if t.Samples.WeightType != model.WeightTypeNone {
		return nil, false
	}
	n := t.Samples.Len()
	times := computeTimes(t, tree, func(i int) float64 {
		if i+1 < n {
			return t.Samples.Time[i+1] - t.Samples.Time[i]
		}
		return t.Interval
	})
	return &times, true
}
