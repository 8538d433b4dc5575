package calltree

import (
	"github.com/samber/lo"

	"github.com/grafana/tracelens/pkg/model"
	"github.com/grafana/tracelens/pkg/util/minheap"
)

// FlameGraph is the levels-array view consumed by flame graph renderers.
// Each level holds one quadruple per visible node:
//
//	i+0 = x offset, delta-encoded within the level
//	i+1 = total
//	i+2 = self
//	i+3 = index into Names
//
// Name index 0 is the synthetic "total" root spanning all top-level nodes.
type FlameGraph struct {
	Names   []string
	Levels  [][]int64
	Total   int64
	MaxSelf int64
}

// NewFlameGraph flattens the tree into levels, keeping at most maxNodes
// nodes (<= 0 means unbounded); subtrees below the value cutoff merge into
// per-parent "other" buckets.
func NewFlameGraph(t *model.Thread, tree *Tree, times NodeTimes, maxNodes int64) *FlameGraph {
	total := lo.SumBy(tree.Roots, func(r int32) float64 { return times.Total[r] })
	minVal := minValue(tree, times, maxNodes)

	names := []string{"total"}
	nameIdx := map[string]int64{"total": 0}
	intern := func(name string) int64 {
		if i, ok := nameIdx[name]; ok {
			return i
		}
		i := int64(len(names))
		names = append(names, name)
		nameIdx[name] = i
		return i
	}

	var levels [][]int64
	var maxSelf int64
	emit := func(level int, xOffset, total, self int64, name string) {
		for len(levels) <= level {
			levels = append(levels, nil)
		}
		if self > maxSelf {
			maxSelf = self
		}
		levels[level] = append(levels[level], xOffset, total, self, intern(name))
	}

	rootSelf := times.RootTime - total // weight of samples with no stack
	if rootSelf < 0 {
		rootSelf = 0
	}
	emit(0, 0, int64(times.RootTime), int64(rootSelf), "total")

	type frame struct {
		node    int32
		level   int
		xOffset int64
	}
	stack := make([]frame, 0, len(tree.Roots))
	for i := len(tree.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: tree.Roots[i], level: 1})
	}
	// Roots are pushed in reverse, so assign offsets left to right, starting
	// past the synthetic root's self region (idle samples).
	rootOffset := int64(rootSelf)
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].xOffset = rootOffset
		rootOffset += int64(times.Total[stack[i].node])
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodeTotal := times.Total[f.node]
		emit(f.level, f.xOffset, int64(nodeTotal), int64(times.Self[f.node]), t.Funcs.Name[tree.FuncIndex[f.node]])

		childX := f.xOffset + int64(times.Self[f.node])
		var otherTotal float64
		kids := tree.Children(f.node)
		for i := len(kids) - 1; i >= 0; i-- {
			child := kids[i]
			if times.Total[child] < minVal {
				otherTotal += times.Total[child]
			}
		}
		if otherTotal > 0 {
			emit(f.level+1, childX, int64(otherTotal), int64(otherTotal), "other")
			childX += int64(otherTotal)
		}
		// Lay surviving children out left to right, then push in reverse so
		// the leftmost pops first and the level stays offset-ordered.
		offset := childX
		base := len(stack)
		for _, child := range kids {
			if times.Total[child] < minVal {
				continue
			}
			stack = append(stack, frame{node: child, level: f.level + 1, xOffset: offset})
			offset += int64(times.Total[child])
		}
		for l, r := base, len(stack)-1; l < r; l, r = l+1, r-1 {
			stack[l], stack[r] = stack[r], stack[l]
		}
	}

	// Delta-encode x offsets within each level.
	for _, l := range levels {
		var prev int64
		for i := 0; i+3 < len(l); i += 4 {
			l[i] -= prev
			prev += l[i] + l[i+1]
		}
	}

	return &FlameGraph{
		Names:   names,
		Levels:  levels,
		Total:   int64(times.RootTime),
		MaxSelf: maxSelf,
	}
}

// minValue is the smallest subtree total that survives pruning to maxNodes.
func minValue(tree *Tree, times NodeTimes, maxNodes int64) float64 {
	if maxNodes <= 0 || int64(tree.Len()) <= maxNodes {
		return 0
	}
	h := make([]float64, 0, maxNodes)
	for i := 0; i < tree.Len(); i++ {
		total := times.Total[i]
		if int64(len(h)) < maxNodes {
			h = minheap.Push(h, total)
		} else if h[0] < total {
			h = minheap.Push(minheap.Pop(h), total)
		}
	}
	return h[0]
}
