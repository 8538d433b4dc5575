package calltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/tracelens/pkg/model"
)

func TestNewFlameGraph(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"))
	b.AddSample(1, model.F("A"), model.F("B"))
	b.AddSample(2) // idle
	th := b.Build()
	tree := Build(th)
	times := ComputeNodeTimes(th, tree)

	fg := NewFlameGraph(th, tree, times, 0)
	require.Len(t, fg.Levels, 3)
	assert.Equal(t, int64(3), fg.Total)
	assert.Equal(t, "total", fg.Names[0])

	// Level 0: synthetic root spans all samples; idle weight is its self.
	assert.Equal(t, []int64{0, 3, 1, 0}, fg.Levels[0])

	// Level 1: A starts after the idle self region.
	require.Len(t, fg.Levels[1], 4)
	assert.Equal(t, int64(1), fg.Levels[1][0], "x offset (delta) past idle")
	assert.Equal(t, int64(2), fg.Levels[1][1], "total")
	assert.Equal(t, int64(0), fg.Levels[1][2], "self")
	assert.Equal(t, "A", fg.Names[fg.Levels[1][3]])

	// Level 2: B carries all of A's weight as self.
	assert.Equal(t, int64(2), fg.Levels[2][2])
	assert.Equal(t, "B", fg.Names[fg.Levels[2][3]])
	assert.Equal(t, int64(2), fg.MaxSelf)
}

func TestNewFlameGraphMaxNodes(t *testing.T) {
	b := model.NewThreadBuilder()
	for i := 0; i < 8; i++ {
		b.AddSample(float64(i), model.F("root"), model.F("hot"))
	}
	b.AddSample(8, model.F("root"), model.F("cold"))
	th := b.Build()
	tree := Build(th)
	times := ComputeNodeTimes(th, tree)

	fg := NewFlameGraph(th, tree, times, 2)
	require.Len(t, fg.Levels, 3)
	var names []string
	for i := 0; i+3 < len(fg.Levels[2]); i += 4 {
		names = append(names, fg.Names[fg.Levels[2][i+3]])
	}
	assert.Contains(t, names, "hot")
	assert.Contains(t, names, "other", "pruned subtrees merge into an other bucket")
	assert.NotContains(t, names, "cold")
}

func TestFlameGraphDeltaEncoding(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("C"))
	b.AddSample(1, model.F("B"), model.F("D"))
	th := b.Build()
	tree := Build(th)
	times := ComputeNodeTimes(th, tree)

	fg := NewFlameGraph(th, tree, times, 0)
	// Level 1 holds roots A and B; decoding the deltas restores absolute
	// offsets 0 and 1.
	l := fg.Levels[1]
	require.Len(t, l, 8)
	assert.Equal(t, int64(0), l[0])
	assert.Equal(t, int64(0), l[4], "B's delta: prev offset 0 + total 1 = absolute 1")
}
