package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/tracelens/pkg/model"
)

func TestToRange(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"))
	b.AddSample(1, model.F("A"))
	b.AddSample(2) // idle, no stack
	b.AddSample(3, model.F("B"))
	th := b.Build()

	got := ToRange(th, TimeRange{Start: 1, End: 3})
	require.Equal(t, 2, got.Samples.Len())
	assert.Equal(t, []float64{1, 2}, got.Samples.Time)
	assert.Equal(t, model.NoIndex, got.Samples.Stack[1], "idle samples are retained")

	// Half-open: a sample exactly at End is excluded, one at Start included.
	edge := ToRange(th, TimeRange{Start: 0, End: 1})
	require.Equal(t, 1, edge.Samples.Len())
	assert.Equal(t, 0.0, edge.Samples.Time[0])
}

func TestByImplementation(t *testing.T) {
	b := model.NewThreadBuilder()
	// native root calling into JS which calls back into native
	b.AddSample(0, model.F("main"), model.JS("onClick", model.TierIon), model.F("memset"))
	th := b.Build()

	t.Run("js keeps managed frames and re-roots", func(t *testing.T) {
		got := ByImplementation(th, ImplementationJS)
		require.Equal(t, 1, got.Stacks.Len())
		assert.Equal(t, model.NoIndex, got.Stacks.Prefix[0], "onClick becomes a root")
		assert.Equal(t, "onClick", got.Funcs.Name[got.StackFunc(0)])
		// the sample's stack resolves to the deepest kept ancestor
		assert.Equal(t, int32(0), got.Samples.Stack[0])
	})

	t.Run("cpp drops managed frames, children reattach", func(t *testing.T) {
		got := ByImplementation(th, ImplementationCpp)
		require.Equal(t, 2, got.Stacks.Len())
		assert.Equal(t, "main", got.Funcs.Name[got.StackFunc(0)])
		assert.Equal(t, "memset", got.Funcs.Name[got.StackFunc(1)])
		assert.Equal(t, int32(0), got.Stacks.Prefix[1], "memset attaches to main")
	})

	t.Run("combined is identity", func(t *testing.T) {
		assert.Same(t, th, ByImplementation(th, ImplementationCombined))
	})
}

func TestByImplementationIdempotent(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("main"), model.JS("tick", model.TierBaseline), model.F("syscall"))
	b.AddSample(1, model.F("main"), model.F("poll"))
	th := b.Build()

	once := ByImplementation(th, ImplementationCpp)
	twice := ByImplementation(once, ImplementationCpp)
	if diff := cmp.Diff(once.Stacks, twice.Stacks); diff != "" {
		t.Errorf("re-filtering changed the stack table (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(once.Samples.Stack, twice.Samples.Stack); diff != "" {
		t.Errorf("re-filtering changed sample stacks (-once +twice):\n%s", diff)
	}
}

func TestEffectiveRange(t *testing.T) {
	for _, tc := range []struct {
		name      string
		committed []TimeRange
		preview   PreviewSelection
		expected  TimeRange
	}{
		{
			name:     "no ranges",
			expected: FullRange(),
		},
		{
			name:      "nested committed ranges intersect",
			committed: []TimeRange{{Start: 0, End: 100}, {Start: 10, End: 50}},
			expected:  TimeRange{Start: 10, End: 50},
		},
		{
			name:      "preview clamps further",
			committed: []TimeRange{{Start: 0, End: 100}},
			preview:   PreviewSelection{HasSelection: true, SelectionStart: 20, SelectionEnd: 30},
			expected:  TimeRange{Start: 20, End: 30},
		},
		{
			name:      "disjoint preview collapses to empty",
			committed: []TimeRange{{Start: 0, End: 10}},
			preview:   PreviewSelection{HasSelection: true, SelectionStart: 20, SelectionEnd: 30},
			expected:  TimeRange{Start: 20, End: 20},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EffectiveRange(tc.committed, tc.preview))
		})
	}
}
