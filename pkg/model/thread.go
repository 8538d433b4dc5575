package model

// Thread bundles every table describing a single sampled thread, plus the
// trace metadata the pipeline needs (sampling interval, category list).
type Thread struct {
	Name       string
	Interval   float64 // sampling interval in milliseconds
	Categories CategoryList

	Funcs     FuncTable
	Resources ResourceTable
	Frames    FrameTable
	Stacks    StackTable
	Samples   SamplesTable
	Markers   MarkerTable
}

// StackFunc returns the function of the leaf frame of a stack.
func (t *Thread) StackFunc(stack int32) int32 {
	return t.Frames.Func[t.Stacks.Frame[stack]]
}

// StackDepth returns the number of frames on the root-to-stack path.
func (t *Thread) StackDepth(stack int32) int32 {
	var depth int32
	for s := stack; s != NoIndex; s = t.Stacks.Prefix[s] {
		depth++
	}
	return depth
}

// StackFuncPath returns the root-to-leaf sequence of function ids for a
// stack. It allocates; callers on hot paths should walk Prefix directly.
func (t *Thread) StackFuncPath(stack int32) []int32 {
	depth := t.StackDepth(stack)
	path := make([]int32, depth)
	for s := stack; s != NoIndex; s = t.Stacks.Prefix[s] {
		depth--
		path[depth] = t.Frames.Func[t.Stacks.Frame[s]]
	}
	return path
}

// StackContainsFunc reports per stack whether the given function occurs
// anywhere on its root-to-leaf path.
func (t *Thread) StackContainsFunc(fn int32) []bool {
	contains := make([]bool, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		if t.Frames.Func[t.Stacks.Frame[i]] == fn {
			contains[i] = true
			continue
		}
		if prefix := t.Stacks.Prefix[i]; prefix != NoIndex {
			contains[i] = contains[prefix]
		}
	}
	return contains
}

// HasFunc reports whether fn is a valid index into the function table.
func (t *Thread) HasFunc(fn int32) bool {
	return fn >= 0 && int(fn) < t.Funcs.Len()
}

// WithStacks returns a shallow copy of the thread carrying a rewritten stack
// table and remapped sample stacks. stackMap maps old stack ids to new ones
// (NoIndex drops the reference); unchanged tables are shared.
func (t *Thread) WithStacks(stacks StackTable, stackMap []int32) *Thread {
	derived := *t
	derived.Stacks = stacks
	samples := t.Samples
	samples.Stack = make([]int32, len(t.Samples.Stack))
	for i, s := range t.Samples.Stack {
		if s == NoIndex {
			samples.Stack[i] = NoIndex
			continue
		}
		samples.Stack[i] = stackMap[s]
	}
	derived.Samples = samples
	return &derived
}
