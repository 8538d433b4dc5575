package calltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/tracelens/pkg/model"
)

func nameOf(t *model.Thread, tree *Tree, node int32) string {
	return t.Funcs.Name[tree.FuncIndex[node]]
}

func TestBuildScenario(t *testing.T) {
	// Stacks A>B>C, A>B>D, A>B>C with unit weight collapse to four call
	// nodes with the canonical self/total split.
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"), model.F("C"))
	b.AddSample(1, model.F("A"), model.F("B"), model.F("D"))
	b.AddSample(2, model.F("A"), model.F("B"), model.F("C"))
	th := b.Build()

	tree := Build(th)
	require.Equal(t, 4, tree.Len())

	a := tree.NodeForPath(th.StackFuncPath(th.Samples.Stack[0])[:1])
	ab := tree.NodeForPath(th.StackFuncPath(th.Samples.Stack[0])[:2])
	abc := tree.NodeForPath(th.StackFuncPath(th.Samples.Stack[0]))
	abd := tree.NodeForPath(th.StackFuncPath(th.Samples.Stack[1]))
	require.NotEqual(t, model.NoIndex, abc)
	require.NotEqual(t, model.NoIndex, abd)

	times := ComputeNodeTimes(th, tree)
	assert.Equal(t, 3.0, times.Total[a])
	assert.Equal(t, 0.0, times.Self[a])
	assert.Equal(t, 3.0, times.Total[ab])
	assert.Equal(t, 0.0, times.Self[ab])
	assert.Equal(t, 2.0, times.Total[abc])
	assert.Equal(t, 2.0, times.Self[abc])
	assert.Equal(t, 1.0, times.Total[abd])
	assert.Equal(t, 1.0, times.Self[abd])
	assert.Equal(t, 3.0, times.RootTime)
}

func TestDedupByFunctionPath(t *testing.T) {
	// Two stacks built from distinct frame occurrences resolve to the same
	// function path and must share one call node.
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"))
	b.AddSample(1, model.F("A"), model.FrameSpec{Name: "B", Dup: 1})
	th := b.Build()
	require.NotEqual(t, th.Samples.Stack[0], th.Samples.Stack[1], "fixture needs distinct stacks")

	tree := Build(th)
	assert.Equal(t,
		tree.StackToNode[th.Samples.Stack[0]],
		tree.StackToNode[th.Samples.Stack[1]])
	assert.Equal(t, 2, tree.Len())
}

func TestPreorderAndSubtreeRanges(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"), model.F("C"))
	b.AddSample(1, model.F("A"), model.F("D"))
	b.AddSample(2, model.F("X"))
	th := b.Build()

	tree := Build(th)
	require.Equal(t, 5, tree.Len())
	// Preorder: A, B, C, D, X
	assert.Equal(t, "A", nameOf(th, tree, 0))
	assert.Equal(t, "B", nameOf(th, tree, 1))
	assert.Equal(t, "C", nameOf(th, tree, 2))
	assert.Equal(t, "D", nameOf(th, tree, 3))
	assert.Equal(t, "X", nameOf(th, tree, 4))

	assert.Equal(t, int32(0), tree.Depth[0])
	assert.Equal(t, int32(1), tree.Depth[1])
	assert.Equal(t, int32(2), tree.Depth[2])
	assert.Equal(t, int32(1), tree.Depth[3])
	assert.Equal(t, int32(0), tree.Depth[4])

	assert.Equal(t, int32(4), tree.SubtreeEnd[0], "A's subtree spans B, C, D")
	assert.Equal(t, int32(3), tree.SubtreeEnd[1])
	assert.Equal(t, int32(5), tree.SubtreeEnd[4])
	assert.Equal(t, []int32{0, 4}, tree.Roots)
}

func TestPathStability(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"), model.F("C"))
	b.AddSample(1, model.F("A"), model.F("D"))
	th := b.Build()

	tree1 := Build(th)
	tree2 := Build(th)
	for node := int32(0); node < int32(tree1.Len()); node++ {
		path := tree1.Path(node)
		assert.Equal(t, path, tree2.Path(tree2.NodeForPath(path)),
			"paths survive a rebuild even though node ids need not")
		assert.Equal(t, node, tree1.NodeForPath(path), "path resolves back to its node")
	}
}

func TestNodeForPathStale(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"))
	th := b.Build()
	tree := Build(th)

	assert.Equal(t, model.NoIndex, tree.NodeForPath([]int32{42}))
	assert.Equal(t, model.NoIndex, tree.NodeForPath([]int32{0, 1}))
	assert.Equal(t, model.NoIndex, tree.NodeForPath(nil))
}

func TestSelfPlusChildrenEqualsTotal(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"), model.F("C"))
	b.AddWeightedSample(1, 5, model.F("A"), model.F("B"))
	b.AddSample(2, model.F("A"), model.F("D"))
	b.AddSample(3, model.F("E"))
	b.AddSample(4)
	th := b.Build()

	tree := Build(th)
	times := ComputeNodeTimes(th, tree)
	for node := 0; node < tree.Len(); node++ {
		sum := times.Self[node]
		for _, child := range tree.Children(int32(node)) {
			sum += times.Total[child]
		}
		assert.Equal(t, times.Total[node], sum, "node %d", node)
	}
	assert.Equal(t, 9.0, times.RootTime, "root time counts idle samples")
}

func TestByFunc(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"))
	b.AddSample(1, model.F("C"), model.F("B"))
	th := b.Build()

	tree := Build(th)
	var fnB int32 = model.NoIndex
	for i, n := range th.Funcs.Name {
		if n == "B" {
			fnB = int32(i)
		}
	}
	require.NotEqual(t, model.NoIndex, fnB)
	assert.Len(t, tree.ByFunc[fnB], 2, "B has one call node per parent")
}

func TestBuildInverted(t *testing.T) {
	b := model.NewThreadBuilder()
	b.AddSample(0, model.F("A"), model.F("B"), model.F("C"))
	b.AddSample(1, model.F("X"), model.F("C"))
	b.AddSample(2, model.F("A"), model.F("B"))
	th := b.Build()

	tree := BuildInverted(th)
	require.True(t, tree.Inverted)

	// Roots are the former leaves: C and B.
	require.Len(t, tree.Roots, 2)
	assert.Equal(t, "C", nameOf(th, tree, tree.Roots[0]))
	assert.Equal(t, "B", nameOf(th, tree, tree.Roots[1]))

	times := ComputeNodeTimes(th, tree)
	for node := 0; node < tree.Len(); node++ {
		if tree.Prefix[node] == model.NoIndex {
			assert.Equal(t, times.Total[node], times.Self[node],
				"inverted root %s claims its total as self", nameOf(th, tree, int32(node)))
		} else {
			assert.Zero(t, times.Self[node],
				"inverted non-root %s has zero self time", nameOf(th, tree, int32(node)))
		}
	}

	c := tree.Roots[0]
	assert.Equal(t, 2.0, times.Total[c], "both C-leaf samples originate at root C")
	cb := tree.NodeForPath([]int32{tree.FuncIndex[c], th.StackFuncPath(th.Samples.Stack[0])[1]})
	require.NotEqual(t, model.NoIndex, cb)
	assert.Equal(t, 1.0, times.Total[cb])
}

func TestHashPath(t *testing.T) {
	assert.Equal(t, HashPath([]int32{1, 2, 3}), HashPath([]int32{1, 2, 3}))
	assert.NotEqual(t, HashPath([]int32{1, 2, 3}), HashPath([]int32{3, 2, 1}))
	assert.NotEqual(t, HashPath([]int32{1}), HashPath(nil))
}
