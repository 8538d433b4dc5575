// Package transform implements the user-applied call-tree transforms as
// rewrites of a thread's stack table. Transforms are held in an ordered,
// per-thread stack and compose left to right: each consumes the stack table
// its predecessor produced.
//
// A transform referencing a function or call-node path absent from the
// current stack table is a no-op rather than an error; a transform stack can
// legitimately outlive the data it was computed against, for example after
// the implementation filter changes.
package transform

import "github.com/grafana/tracelens/pkg/model"

// Kind discriminates the closed set of transform variants.
type Kind string

const (
	KindMergeFunction           Kind = "merge-function"
	KindMergeCallNode           Kind = "merge-call-node"
	KindFocusSubtree            Kind = "focus-subtree"
	KindFocusFunction           Kind = "focus-function"
	KindDropFunction            Kind = "drop-function"
	KindCollapseResource        Kind = "collapse-resource"
	KindCollapseDirectRecursion Kind = "collapse-direct-recursion"
	KindCollapseFunctionSubtree Kind = "collapse-function-subtree"
)

// Transform is one parameterized operation. Which parameter fields are
// meaningful depends on Kind: FuncIndex for the function-scoped kinds, Path
// (a root-to-node sequence of function ids) for the path-scoped kinds,
// ResourceIndex for collapse-resource.
type Transform struct {
	Kind          Kind
	FuncIndex     int32
	ResourceIndex int32
	Path          []int32
}

// Apply folds the ordered transform stack over the thread, index 0 first.
func Apply(t *model.Thread, transforms []Transform) *model.Thread {
	for _, tr := range transforms {
		t = applyOne(t, tr)
	}
	return t
}

func applyOne(t *model.Thread, tr Transform) *model.Thread {
	switch tr.Kind {
	case KindMergeFunction:
		return mergeFunction(t, tr.FuncIndex)
	case KindMergeCallNode:
		return mergeCallNode(t, tr.Path)
	case KindFocusSubtree:
		return focusSubtree(t, tr.Path)
	case KindFocusFunction:
		return focusFunction(t, tr.FuncIndex)
	case KindDropFunction:
		return dropFunction(t, tr.FuncIndex)
	case KindCollapseResource:
		return collapseResource(t, tr.ResourceIndex)
	case KindCollapseDirectRecursion:
		return collapseDirectRecursion(t, tr.FuncIndex)
	case KindCollapseFunctionSubtree:
		return collapseFunctionSubtree(t, tr.FuncIndex)
	default:
		return t
	}
}

// mergeFunction removes every frame of fn from every stack; children attach
// to the former parent. Sibling stacks that become identical are kept as
// separate rows, unification happens in call-node tree construction.
func mergeFunction(t *model.Thread, fn int32) *model.Thread {
	if !t.HasFunc(fn) {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		mappedPrefix := mapped(t, stackMap, i)
		if t.Frames.Func[t.Stacks.Frame[i]] == fn {
			stackMap[i] = mappedPrefix
			continue
		}
		stackMap[i] = stacks.Append(t.Stacks.Frame[i], mappedPrefix)
	}
	return t.WithStacks(stacks, stackMap)
}

// mergeCallNode is mergeFunction scoped to one exact call-node path: only
// the occurrence at the path's tail is merged.
func mergeCallNode(t *model.Thread, path []int32) *model.Thread {
	tail, onPath := matchPath(t, path)
	if !tail {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		mappedPrefix := mapped(t, stackMap, i)
		if onPath[i] == int32(len(path)) {
			stackMap[i] = mappedPrefix
			continue
		}
		stackMap[i] = stacks.Append(t.Stacks.Frame[i], mappedPrefix)
	}
	return t.WithStacks(stacks, stackMap)
}

// focusSubtree drops every stack not passing through the path and re-roots
// the survivors at the path's tail frame. Samples whose stack is dropped
// lose their stack reference.
func focusSubtree(t *model.Thread, path []int32) *model.Thread {
	tail, onPath := matchPath(t, path)
	if !tail {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	inSubtree := make([]bool, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		prefix := t.Stacks.Prefix[i]
		switch {
		case onPath[i] == int32(len(path)):
			inSubtree[i] = true
			stackMap[i] = stacks.Append(t.Stacks.Frame[i], model.NoIndex)
		case prefix != model.NoIndex && inSubtree[prefix]:
			inSubtree[i] = true
			stackMap[i] = stacks.Append(t.Stacks.Frame[i], stackMap[prefix])
		default:
			stackMap[i] = model.NoIndex
		}
	}
	return t.WithStacks(stacks, stackMap)
}

// focusFunction drops stacks not containing fn; for the rest, every
// occurrence of fn becomes a new root and descendants are duplicated once
// per occurrence. A sample keeps the duplicate rooted at the shallowest
// occurrence, which carries the full chain.
func focusFunction(t *model.Thread, fn int32) *model.Thread {
	if !t.HasFunc(fn) || !anyStackHasFunc(t, fn) {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	rows := make([][]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		frame := t.Stacks.Frame[i]
		var newRows []int32
		if prefix := t.Stacks.Prefix[i]; prefix != model.NoIndex {
			for _, parent := range rows[prefix] {
				newRows = append(newRows, stacks.Append(frame, parent))
			}
		}
		if t.Frames.Func[frame] == fn {
			newRows = append(newRows, stacks.Append(frame, model.NoIndex))
		}
		rows[i] = newRows
		if len(newRows) > 0 {
			stackMap[i] = newRows[0]
		} else {
			stackMap[i] = model.NoIndex
		}
	}
	return t.WithStacks(stacks, stackMap)
}

// dropFunction removes every sample whose stack contains fn. The stack table
// is left alone; orphaned rows simply receive no weight.
func dropFunction(t *model.Thread, fn int32) *model.Thread {
	if !t.HasFunc(fn) {
		return t
	}
	contains := t.StackContainsFunc(fn)
	derived := *t
	samples := model.SamplesTable{WeightType: t.Samples.WeightType}
	for i := 0; i < t.Samples.Len(); i++ {
		stack := t.Samples.Stack[i]
		if stack != model.NoIndex && contains[stack] {
			continue
		}
		samples.Time = append(samples.Time, t.Samples.Time[i])
		samples.Stack = append(samples.Stack, stack)
		if t.Samples.Weight != nil {
			samples.Weight = append(samples.Weight, t.Samples.Weight[i])
		}
		if t.Samples.Responsiveness != nil {
			samples.Responsiveness = append(samples.Responsiveness, t.Samples.Responsiveness[i])
		}
		if t.Samples.EventDelay != nil {
			samples.EventDelay = append(samples.EventDelay, t.Samples.EventDelay[i])
		}
	}
	derived.Samples = samples
	return &derived
}

// collapseResource folds every maximal contiguous run of frames belonging to
// the resource into one synthetic frame named after the resource.
func collapseResource(t *model.Thread, resource int32) *model.Thread {
	if resource < 0 || int(resource) >= t.Resources.Len() {
		return t
	}
	funcs := t.Funcs.Clone()
	frames := t.Frames.Clone()
	collapsedFunc := funcs.Append(t.Resources.Name[resource], resource, false)

	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	collapsedRun := make([]bool, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		frame := t.Stacks.Frame[i]
		prefix := t.Stacks.Prefix[i]
		mappedPrefix := mapped(t, stackMap, i)
		if t.Funcs.Resource[t.Frames.Func[frame]] == resource {
			if prefix != model.NoIndex && collapsedRun[prefix] {
				// continue the run, fold into the same synthetic row
				stackMap[i] = stackMap[prefix]
			} else {
				synthetic := frames.Append(
					collapsedFunc,
					t.Frames.Category[frame],
					t.Frames.Subcategory[frame],
					t.Frames.Implementation[frame],
					t.Frames.InnerWindowID[frame],
				)
				stackMap[i] = stacks.Append(synthetic, mappedPrefix)
			}
			collapsedRun[i] = true
			continue
		}
		stackMap[i] = stacks.Append(frame, mappedPrefix)
	}
	derived := t.WithStacks(stacks, stackMap)
	derived.Funcs = *funcs
	derived.Frames = *frames
	return derived
}

// collapseDirectRecursion merges consecutive frames of the same function
// into one.
func collapseDirectRecursion(t *model.Thread, fn int32) *model.Thread {
	if !t.HasFunc(fn) {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		prefix := t.Stacks.Prefix[i]
		if t.Frames.Func[t.Stacks.Frame[i]] == fn &&
			prefix != model.NoIndex &&
			t.Frames.Func[t.Stacks.Frame[prefix]] == fn {
			stackMap[i] = stackMap[prefix]
			continue
		}
		stackMap[i] = stacks.Append(t.Stacks.Frame[i], mapped(t, stackMap, i))
	}
	return t.WithStacks(stacks, stackMap)
}

// collapseFunctionSubtree drops every descendant of any occurrence of fn;
// the occurrence becomes a leaf that receives its former subtree's samples
// as self weight.
func collapseFunctionSubtree(t *model.Thread, fn int32) *model.Thread {
	if !t.HasFunc(fn) {
		return t
	}
	var stacks model.StackTable
	stackMap := make([]int32, t.Stacks.Len())
	collapsedInto := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		prefix := t.Stacks.Prefix[i]
		if prefix != model.NoIndex && collapsedInto[prefix] != model.NoIndex {
			stackMap[i] = collapsedInto[prefix]
			collapsedInto[i] = collapsedInto[prefix]
			continue
		}
		row := stacks.Append(t.Stacks.Frame[i], mapped(t, stackMap, i))
		stackMap[i] = row
		if t.Frames.Func[t.Stacks.Frame[i]] == fn {
			collapsedInto[i] = row
		} else {
			collapsedInto[i] = model.NoIndex
		}
	}
	return t.WithStacks(stacks, stackMap)
}

func mapped(t *model.Thread, stackMap []int32, i int) int32 {
	if prefix := t.Stacks.Prefix[i]; prefix != model.NoIndex {
		return stackMap[prefix]
	}
	return model.NoIndex
}

func anyStackHasFunc(t *model.Thread, fn int32) bool {
	for i := 0; i < t.Stacks.Len(); i++ {
		if t.Frames.Func[t.Stacks.Frame[i]] == fn {
			return true
		}
	}
	return false
}

// matchPath marks, per stack, how many leading components of the call-node
// path its own function path matches; a stack matching the whole path is a
// tail occurrence. The bool result reports whether any tail exists, which
// doubles as the no-op check for stale paths.
func matchPath(t *model.Thread, path []int32) (bool, []int32) {
	if len(path) == 0 {
		return false, nil
	}
	onPath := make([]int32, t.Stacks.Len())
	var tailFound bool
	for i := 0; i < t.Stacks.Len(); i++ {
		prefix := t.Stacks.Prefix[i]
		depth := int32(0)
		if prefix != model.NoIndex {
			depth = onPath[prefix]
			if depth == 0 {
				continue // an ancestor already diverged
			}
			if depth == int32(len(path)) {
				continue // below the tail, no longer on the path itself
			}
		}
		if t.Frames.Func[t.Stacks.Frame[i]] == path[depth] {
			onPath[i] = depth + 1
			if onPath[i] == int32(len(path)) {
				tailFound = true
			}
		}
	}
	return tailFound, onPath
}
