package querier

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/tracelens/pkg/filter"
	"github.com/grafana/tracelens/pkg/model"
	"github.com/grafana/tracelens/pkg/transform"
)

func testThread(t *testing.T) *model.Thread {
	t.Helper()
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"), model.F("C"))
	b.AddSample(1, model.F("A"), model.F("B"), model.F("D"))
	b.AddSample(2, model.F("A"), model.JS("E", model.TierIon))
	b.AddSample(3, model.F("A"), model.F("B"), model.F("C"))
	b.AddMarker("Reflow", 0.5, 1.5, "Layout", nil)
	b.AddMarker("DOMEvent", 2.5, model.NullTime(), "", nil)
	th := b.Build()
	require.NoError(t, th.Validate())
	return th
}

func newQuerier(t *testing.T, reg prometheus.Registerer) *Querier {
	t.Helper()
	q, err := New(testThread(t), Config{Registerer: reg})
	require.NoError(t, err)
	return q
}

func funcIndex(t *testing.T, th *model.Thread, name string) int32 {
	t.Helper()
	for i, n := range th.Funcs.Name {
		if n == name {
			return int32(i)
		}
	}
	t.Fatalf("no function %q", name)
	return model.NoIndex
}

func TestNewNilThread(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)
}

func TestTreeViewTotals(t *testing.T) {
	q := newQuerier(t, nil)
	v := q.TreeView(ViewConfig{})

	require.Len(t, v.Tree.Roots, 1)
	root := v.Tree.Roots[0]
	assert.InDelta(t, 4.0, v.Times.Total[root], 1e-9)
	assert.InDelta(t, 4.0, v.Times.RootTime, 1e-9)
}

func TestTreeViewInverted(t *testing.T) {
	q := newQuerier(t, nil)
	v := q.TreeView(ViewConfig{Invert: true})

	assert.True(t, v.Tree.Inverted)
	// Leaves C, D and E each become an inverted root.
	assert.Len(t, v.Tree.Roots, 3)
}

func TestFilteredRangeAndImplementation(t *testing.T) {
	q := newQuerier(t, nil)
	cfg := ViewConfig{
		CommittedRanges: []filter.TimeRange{{Start: 1, End: 3}},
		Implementation:  filter.ImplementationJS,
	}
	th := q.Filtered(cfg)

	require.Equal(t, 2, th.Samples.Len())
	// Only the sample at t=2 still has frames after the js filter.
	assert.Equal(t, model.NoIndex, th.Samples.Stack[0])
	assert.NotEqual(t, model.NoIndex, th.Samples.Stack[1])
}

func TestTransformedAppliesPipeline(t *testing.T) {
	q := newQuerier(t, nil)
	fnB := funcIndex(t, q.Thread(), "B")
	cfg := ViewConfig{Transforms: []transform.Transform{
		{Kind: transform.KindDropFunction, FuncIndex: fnB},
	}}
	th := q.Transformed(cfg)

	assert.Equal(t, 1, th.Samples.Len())
}

func TestStagesAreMemoized(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	q := newQuerier(t, reg)
	cfg := ViewConfig{Invert: true}

	first := q.TreeView(cfg)
	second := q.TreeView(cfg)
	assert.Same(t, first, second)

	misses := q.metrics.cacheRequests.WithLabelValues("tree", "miss")
	hits := q.metrics.cacheRequests.WithLabelValues("tree", "hit")
	assert.Equal(t, 1.0, testutil.ToFloat64(misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(hits))
}

func TestDistinctConfigsMissTheCache(t *testing.T) {
	q := newQuerier(t, nil)

	plain := q.TreeView(ViewConfig{})
	inverted := q.TreeView(ViewConfig{Invert: true})
	assert.NotSame(t, plain, inverted)

	narrowed := q.Filtered(ViewConfig{Preview: filter.PreviewSelection{
		HasSelection:   true,
		SelectionStart: 0,
		SelectionEnd:   2,
	}})
	assert.Equal(t, 2, narrowed.Samples.Len())
	assert.Equal(t, 4, q.Filtered(ViewConfig{}).Samples.Len())
}

func TestTimingsForPath(t *testing.T) {
	q := newQuerier(t, nil)
	th := q.Thread()
	path := []int32{funcIndex(t, th, "A"), funcIndex(t, th, "B")}

	timings := q.TimingsForPath(ViewConfig{}, path)
	assert.InDelta(t, 3.0, timings.ForPath.TotalTime.Value, 1e-9)
	assert.InDelta(t, 0.0, timings.ForPath.SelfTime.Value, 1e-9)
}

func TestTracedTiming(t *testing.T) {
	q := newQuerier(t, nil)
	times, ok := q.TracedTiming(ViewConfig{})
	require.True(t, ok)
	require.Len(t, q.TreeView(ViewConfig{}).Tree.Roots, 1)
	assert.InDelta(t, 4.0, times.Total[q.TreeView(ViewConfig{}).Tree.Roots[0]], 1e-9)
}

func TestMarkersRangeAndSearch(t *testing.T) {
	q := newQuerier(t, nil)

	assert.Len(t, q.Markers(ViewConfig{}), 2)
	assert.Len(t, q.Markers(ViewConfig{MarkerSearch: "reflow"}), 1)
	assert.Empty(t, q.Markers(ViewConfig{
		CommittedRanges: []filter.TimeRange{{Start: 3, End: 4}},
	}))
}

func TestFlameGraphRoot(t *testing.T) {
	q := newQuerier(t, nil)
	fg := q.FlameGraph(ViewConfig{}, 16)
	require.NotEmpty(t, fg.Levels)
	assert.InDelta(t, 4.0, fg.Total, 1e-9)
}
