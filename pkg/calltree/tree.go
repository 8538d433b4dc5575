// Package calltree derives the deduplicated call-node tree from a thread's
// stack table and aggregates sample weight over it.
//
// A call node is a (function, parent call node) pair: any two stacks that
// resolve to the same root-to-leaf function path share exactly one call
// node, no matter how many distinct frame occurrences produced them. Nodes
// are stored as parallel arrays in depth-first preorder, so the subtree of
// node n is the contiguous id range [n, SubtreeEnd[n]).
package calltree

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/grafana/tracelens/pkg/model"
)

// Tree is the call-node table plus the maps the aggregation queries need.
type Tree struct {
	FuncIndex   []int32
	Prefix      []int32 // parent call node, model.NoIndex for roots
	Depth       []int32
	SubtreeEnd  []int32 // exclusive end of the preorder subtree range
	Category    []int32 // resolved category, conflicts fall back to "Other"
	Subcategory []int32

	// StackToNode maps stack ids of the source table to call nodes;
	// model.NoIndex for stacks that produced no node (inverted trees only
	// materialize sampled paths).
	StackToNode []int32
	// ByFunc lists every call node of a function, for forFunc aggregation.
	ByFunc map[int32][]int32

	Roots    []int32
	Inverted bool

	children [][]int32
}

func (tr *Tree) Len() int { return len(tr.FuncIndex) }

// Children returns the call-node ids directly below node, in preorder.
func (tr *Tree) Children(node int32) []int32 {
	if node == model.NoIndex {
		return tr.Roots
	}
	return tr.children[node]
}

// Path returns the root-to-node sequence of function ids. Paths, unlike
// node ids, are stable across tree rebuilds and are how collaborators
// remember a selection.
func (tr *Tree) Path(node int32) []int32 {
	var depth int32
	if node != model.NoIndex {
		depth = tr.Depth[node] + 1
	}
	path := make([]int32, depth)
	for n := node; n != model.NoIndex; n = tr.Prefix[n] {
		depth--
		path[depth] = tr.FuncIndex[n]
	}
	return path
}

// NodeForPath resolves a function-id path by value, returning model.NoIndex
// when the path no longer exists in this tree.
func (tr *Tree) NodeForPath(path []int32) int32 {
	node := model.NoIndex
	for _, fn := range path {
		next := model.NoIndex
		for _, child := range tr.Children(node) {
			if tr.FuncIndex[child] == fn {
				next = child
				break
			}
		}
		if next == model.NoIndex {
			return model.NoIndex
		}
		node = next
	}
	return node
}

// HashPath hashes a call-node path for use as a cache key component.
func HashPath(path []int32) uint64 {
	h := xxhash.New()
	var b [4]byte
	for _, fn := range path {
		binary.LittleEndian.PutUint32(b[:], uint32(fn))
		_, _ = h.Write(b[:])
	}
	return h.Sum64()
}

// treeBuilder accumulates nodes keyed by (function, parent) before the
// preorder renumbering pass.
type treeBuilder struct {
	funcIndex   []int32
	prefix      []int32
	category    []int32
	subcategory []int32
	children    [][]int32
	roots       []int32
	dedup       map[uint64]int32
	otherCat    int32
}

func newTreeBuilder(otherCat int32) *treeBuilder {
	return &treeBuilder{dedup: map[uint64]int32{}, otherCat: otherCat}
}

func dedupKey(fn, parent int32) uint64 {
	return uint64(uint32(parent+1))<<32 | uint64(uint32(fn))
}

func (b *treeBuilder) node(fn, parent, category, subcategory int32) int32 {
	key := dedupKey(fn, parent)
	if node, ok := b.dedup[key]; ok {
		// Stacks with conflicting categories collapse to the fallback
		// bucket rather than picking a winner.
		if b.category[node] != category {
			b.category[node] = b.otherCat
			b.subcategory[node] = 0
		} else if b.subcategory[node] != subcategory {
			b.subcategory[node] = 0
		}
		return node
	}
	node := int32(len(b.funcIndex))
	b.funcIndex = append(b.funcIndex, fn)
	b.prefix = append(b.prefix, parent)
	b.category = append(b.category, category)
	b.subcategory = append(b.subcategory, subcategory)
	b.children = append(b.children, nil)
	if parent == model.NoIndex {
		b.roots = append(b.roots, node)
	} else {
		b.children[parent] = append(b.children[parent], node)
	}
	b.dedup[key] = node
	return node
}

// finish renumbers nodes into depth-first preorder (children in first-
// encounter order), computes depth and subtree ranges, and remaps the
// stack-to-node column.
func (b *treeBuilder) finish(stackToNode []int32, inverted bool) *Tree {
	n := len(b.funcIndex)
	tree := &Tree{
		FuncIndex:   make([]int32, n),
		Prefix:      make([]int32, n),
		Depth:       make([]int32, n),
		SubtreeEnd:  make([]int32, n),
		Category:    make([]int32, n),
		Subcategory: make([]int32, n),
		ByFunc:      map[int32][]int32{},
		Inverted:    inverted,
		children:    make([][]int32, n),
	}
	order := make([]int32, 0, n)      // preorder sequence of builder ids
	newID := make([]int32, n)
	stack := make([]int32, 0, 64)
	for i := len(b.roots) - 1; i >= 0; i-- {
		stack = append(stack, b.roots[i])
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		newID[node] = int32(len(order))
		order = append(order, node)
		kids := b.children[node]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	for newIdx, oldIdx := range order {
		idx := int32(newIdx)
		fn := b.funcIndex[oldIdx]
		tree.FuncIndex[idx] = fn
		tree.Category[idx] = b.category[oldIdx]
		tree.Subcategory[idx] = b.subcategory[oldIdx]
		if parent := b.prefix[oldIdx]; parent != model.NoIndex {
			tree.Prefix[idx] = newID[parent]
			tree.Depth[idx] = tree.Depth[newID[parent]] + 1
		} else {
			tree.Prefix[idx] = model.NoIndex
			tree.Roots = append(tree.Roots, idx)
		}
		kids := make([]int32, len(b.children[oldIdx]))
		for i, child := range b.children[oldIdx] {
			kids[i] = newID[child]
		}
		tree.children[idx] = kids
		tree.ByFunc[fn] = append(tree.ByFunc[fn], idx)
	}

	// In preorder, a node's subtree ends where the next node at the same or
	// a shallower depth begins; a reverse sweep folds that in O(n).
	for i := n - 1; i >= 0; i-- {
		end := int32(i + 1)
		for _, child := range tree.children[i] {
			if tree.SubtreeEnd[child] > end {
				end = tree.SubtreeEnd[child]
			}
		}
		tree.SubtreeEnd[i] = end
	}

	tree.StackToNode = stackToNode
	for i, node := range stackToNode {
		if node != model.NoIndex {
			stackToNode[i] = newID[node]
		}
	}
	return tree
}

// Build constructs the call-node tree over the thread's stack table. Stacks
// are visited in increasing id order; the table's parent-before-child
// ordering guarantees every prefix is resolved before its descendants, so
// construction is O(stacks).
func Build(t *model.Thread) *Tree {
	categories := model.ResolveStackCategories(t)
	subcategories := model.ResolveStackSubcategories(t, categories)
	b := newTreeBuilder(t.Categories.OtherCategoryIndex())
	stackToNode := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		parent := model.NoIndex
		if prefix := t.Stacks.Prefix[i]; prefix != model.NoIndex {
			parent = stackToNode[prefix]
		}
		fn := t.Frames.Func[t.Stacks.Frame[i]]
		stackToNode[i] = b.node(fn, parent, categories[i], subcategories[i])
	}
	return b.finish(stackToNode, false)
}

// BuildInverted constructs the mirror tree rooted at former leaves: each
// sampled stack is walked leaf to root and inserted as a path. StackToNode
// maps a sampled stack to the deepest node of its inverted path (the former
// root), which aggregation relies on: accumulating leaf weight there and
// summing subtrees yields, for every inverted node, the weight of all
// samples whose stack passes through it.
func BuildInverted(t *model.Thread) *Tree {
	categories := model.ResolveStackCategories(t)
	subcategories := model.ResolveStackSubcategories(t, categories)
	b := newTreeBuilder(t.Categories.OtherCategoryIndex())
	stackToNode := make([]int32, t.Stacks.Len())
	for i := range stackToNode {
		stackToNode[i] = model.NoIndex
	}
	for i := 0; i < t.Samples.Len(); i++ {
		stack := t.Samples.Stack[i]
		if stack == model.NoIndex || stackToNode[stack] != model.NoIndex {
			continue
		}
		node := model.NoIndex
		for s := stack; s != model.NoIndex; s = t.Stacks.Prefix[s] {
			fn := t.Frames.Func[t.Stacks.Frame[s]]
			node = b.node(fn, node, categories[s], subcategories[s])
		}
		stackToNode[stack] = node
	}
	return b.finish(stackToNode, true)
}
