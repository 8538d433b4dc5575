package calltree

import "github.com/grafana/tracelens/pkg/model"

// NodeTimes carries self and total weight per call node, plus the window's
// total sample weight used as the denominator for percentage displays.
type NodeTimes struct {
	Self     []float64
	Total    []float64
	RootTime float64
}

// ComputeNodeTimes aggregates sample weight over the tree. For a normal tree
// a sample's weight is self time of the call node its stack maps to, and
// total time of that node and every ancestor. For an inverted tree the same
// accumulation runs over the mirror structure, but self time follows the
// inversion asymmetry: a non-root node has zero self time by definition, and
// each root (a former leaf) claims its entire total as self time.
func ComputeNodeTimes(t *model.Thread, tree *Tree) NodeTimes {
	return computeTimes(t, tree, t.Samples.WeightAt)
}

func computeTimes(t *model.Thread, tree *Tree, weightAt func(int) float64) NodeTimes {
	times := NodeTimes{
		Self:  make([]float64, tree.Len()),
		Total: make([]float64, tree.Len()),
	}
	leaf := make([]float64, tree.Len())
	for i := 0; i < t.Samples.Len(); i++ {
		w := weightAt(i)
		times.RootTime += w
		stack := t.Samples.Stack[i]
		if stack == model.NoIndex {
			continue
		}
		if node := tree.StackToNode[stack]; node != model.NoIndex {
			leaf[node] += w
		}
	}

	// Reverse preorder: children precede parents, so totals roll up in one
	// sweep.
	for i := tree.Len() - 1; i >= 0; i-- {
		times.Total[i] += leaf[i]
		if prefix := tree.Prefix[i]; prefix != model.NoIndex {
			times.Total[prefix] += times.Total[i]
		}
	}

	if tree.Inverted {
		for _, root := range tree.Roots {
			times.Self[root] = times.Total[root]
		}
	} else {
		copy(times.Self, leaf)
	}
	return times
}

// BreakdownByImplementation maps tier name to summed weight.
type BreakdownByImplementation map[string]float64

// OneCategoryBreakdown is the per-category slice of a timing value; the
// subcategory entries sum to the category value.
type OneCategoryBreakdown struct {
	EntireCategoryValue   float64
	SubcategoryBreakdowns []float64
}

// ItemTiming is one self-or-total value with its breakdowns. Breakdown
// containers are always materialized, even when the value is zero, so an
// inverted non-root node reports an explicitly empty breakdown rather than
// an omitted one.
type ItemTiming struct {
	Value                     float64
	BreakdownByImplementation BreakdownByImplementation
	BreakdownByCategory       []OneCategoryBreakdown
}

func newItemTiming(categories model.CategoryList) ItemTiming {
	byCategory := make([]OneCategoryBreakdown, len(categories))
	for i, c := range categories {
		byCategory[i] = OneCategoryBreakdown{
			SubcategoryBreakdowns: make([]float64, len(c.Subcategories)),
		}
	}
	return ItemTiming{
		BreakdownByImplementation: BreakdownByImplementation{},
		BreakdownByCategory:       byCategory,
	}
}

func (it *ItemTiming) add(w float64, tier model.Tier, category, subcategory int32) {
	it.Value += w
	it.BreakdownByImplementation[tier.String()] += w
	if category >= 0 && int(category) < len(it.BreakdownByCategory) {
		c := &it.BreakdownByCategory[category]
		c.EntireCategoryValue += w
		if subcategory < 0 || int(subcategory) >= len(c.SubcategoryBreakdowns) {
			subcategory = 0
		}
		c.SubcategoryBreakdowns[subcategory] += w
	}
}

// PathTimings pairs the self and total timing of one selection scope.
type PathTimings struct {
	SelfTime  ItemTiming
	TotalTime ItemTiming
}

// TimingsForPath is the sidebar query result for one selected call-node
// path: ForPath counts only samples reaching that exact node, ForFunc counts
// samples reaching any call node of the same function, and RootTime is the
// window denominator.
type TimingsForPath struct {
	ForPath  PathTimings
	ForFunc  PathTimings
	RootTime float64
}

func newPathTimings(categories model.CategoryList) PathTimings {
	return PathTimings{
		SelfTime:  newItemTiming(categories),
		TotalTime: newItemTiming(categories),
	}
}

// ComputeTimingsForPath aggregates the thread's samples for the selected
// path over the given (normal or inverted) tree. A path that no longer
// resolves yields zero-valued timings, not an error.
func ComputeTimingsForPath(t *model.Thread, tree *Tree, path []int32) TimingsForPath {
	result := TimingsForPath{
		ForPath: newPathTimings(t.Categories),
		ForFunc: newPathTimings(t.Categories),
	}
	node := tree.NodeForPath(path)
	var fn int32 = model.NoIndex
	if len(path) > 0 {
		fn = path[len(path)-1]
	}
	categories := model.ResolveStackCategories(t)
	subcategories := model.ResolveStackSubcategories(t, categories)

	for i := 0; i < t.Samples.Len(); i++ {
		w := t.Samples.WeightAt(i)
		result.RootTime += w
		stack := t.Samples.Stack[i]
		if stack == model.NoIndex {
			continue
		}
		sampleNode := tree.StackToNode[stack]
		if sampleNode == model.NoIndex {
			continue
		}

		if node != model.NoIndex && inSubtree(tree, node, sampleNode) {
			depth := tree.Depth[node]
			row := ancestorRow(t, tree, stack, sampleNode, depth)
			result.ForPath.TotalTime.add(w, rowTier(t, row), categories[row], subcategories[row])
			if tree.Inverted {
				if depth == 0 {
					result.ForPath.SelfTime.add(w, rowTier(t, stack), categories[stack], subcategories[stack])
				}
			} else if sampleNode == node {
				result.ForPath.SelfTime.add(w, rowTier(t, stack), categories[stack], subcategories[stack])
			}
		}

		if fn != model.NoIndex {
			// Nearest occurrence of the function on this sample's path,
			// counted once even if the function recurs.
			match, depth := nearestAncestorWithFunc(tree, sampleNode, fn)
			if match != model.NoIndex {
				row := ancestorRow(t, tree, stack, sampleNode, depth)
				result.ForFunc.TotalTime.add(w, rowTier(t, row), categories[row], subcategories[row])
				if tree.Inverted {
					if tree.Depth[match] == 0 {
						result.ForFunc.SelfTime.add(w, rowTier(t, stack), categories[stack], subcategories[stack])
					}
				} else if match == sampleNode {
					result.ForFunc.SelfTime.add(w, rowTier(t, stack), categories[stack], subcategories[stack])
				}
			}
		}
	}
	return result
}

func inSubtree(tree *Tree, node, candidate int32) bool {
	return candidate >= node && candidate < tree.SubtreeEnd[node]
}

func rowTier(t *model.Thread, row int32) model.Tier {
	return t.Frames.Implementation[t.Stacks.Frame[row]]
}

// ancestorRow finds the stack row whose frame corresponds to the tree node
// at the given depth on this sample's path. In a normal tree depth counts
// from the stack root; in an inverted tree it counts up from the leaf.
func ancestorRow(t *model.Thread, tree *Tree, stack, sampleNode, depth int32) int32 {
	var steps int32
	if tree.Inverted {
		steps = depth
	} else {
		steps = tree.Depth[sampleNode] - depth
	}
	row := stack
	for ; steps > 0; steps-- {
		row = t.Stacks.Prefix[row]
	}
	return row
}

func nearestAncestorWithFunc(tree *Tree, node, fn int32) (int32, int32) {
	for n := node; n != model.NoIndex; n = tree.Prefix[n] {
		if tree.FuncIndex[n] == fn {
			return n, tree.Depth[n]
		}
	}
	return model.NoIndex, 0
}
