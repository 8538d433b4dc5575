package model

// FuncTable is the identity table for named routines. A function is
// immutable once created; frames reference it by index.
type FuncTable struct {
	Name     []string
	Resource []int32 // index into ResourceTable, NoIndex when none
	IsJS     []bool
}

func (t *FuncTable) Len() int { return len(t.Name) }

// Append adds a function and returns its index.
func (t *FuncTable) Append(name string, resource int32, isJS bool) int32 {
	t.Name = append(t.Name, name)
	t.Resource = append(t.Resource, resource)
	t.IsJS = append(t.IsJS, isJS)
	return int32(t.Len() - 1)
}

// Clone returns a deep copy, used by transforms that need to add synthetic
// functions without touching the shared table.
func (t *FuncTable) Clone() *FuncTable {
	return &FuncTable{
		Name:     append([]string(nil), t.Name...),
		Resource: append([]int32(nil), t.Resource...),
		IsJS:     append([]bool(nil), t.IsJS...),
	}
}

// ResourceTable names the libraries/origins functions belong to.
type ResourceTable struct {
	Name []string
}

func (t *ResourceTable) Len() int { return len(t.Name) }

func (t *ResourceTable) Append(name string) int32 {
	t.Name = append(t.Name, name)
	return int32(t.Len() - 1)
}

// FrameTable records occurrences of functions in stacks, together with the
// context of the occurrence: category, subcategory, implementation tier and
// the owning window for tab attribution. Many frames may reference the same
// function.
type FrameTable struct {
	Func           []int32
	Category       []int32 // index into the thread's category list, NoIndex when none
	Subcategory    []int32 // index into the category's subcategory list, NoIndex when none
	Implementation []Tier
	InnerWindowID  []int64 // 0 when not attributed to a window
}

func (t *FrameTable) Len() int { return len(t.Func) }

func (t *FrameTable) Append(fn, category, subcategory int32, tier Tier, innerWindowID int64) int32 {
	t.Func = append(t.Func, fn)
	t.Category = append(t.Category, category)
	t.Subcategory = append(t.Subcategory, subcategory)
	t.Implementation = append(t.Implementation, tier)
	t.InnerWindowID = append(t.InnerWindowID, innerWindowID)
	return int32(t.Len() - 1)
}

func (t *FrameTable) Clone() *FrameTable {
	return &FrameTable{
		Func:           append([]int32(nil), t.Func...),
		Category:       append([]int32(nil), t.Category...),
		Subcategory:    append([]int32(nil), t.Subcategory...),
		Implementation: append([]Tier(nil), t.Implementation...),
		InnerWindowID:  append([]int64(nil), t.InnerWindowID...),
	}
}

// StackTable is a prefix tree over frames: entry i holds the leaf frame and
// the index of the parent stack (NoIndex for roots). The table is ordered so
// that every prefix precedes the stacks that reference it; producers that
// rewrite the table must preserve this ordering. Stacks are deliberately not
// deduplicated by function identity, that happens in call-node tree
// construction.
type StackTable struct {
	Frame  []int32
	Prefix []int32
}

func (t *StackTable) Len() int { return len(t.Frame) }

func (t *StackTable) Append(frame, prefix int32) int32 {
	t.Frame = append(t.Frame, frame)
	t.Prefix = append(t.Prefix, prefix)
	return int32(t.Len() - 1)
}

// SamplesTable holds the point-in-time observations. Weight is nil when every
// sample counts as one unit. Responsiveness and EventDelay are nil when the
// trace carries no such column; individual entries use NaN for missing
// values.
type SamplesTable struct {
	Time           []float64
	Stack          []int32 // NoIndex when no stack was captured
	Weight         []float64
	WeightType     WeightType
	Responsiveness []float64
	EventDelay     []float64
}

func (t *SamplesTable) Len() int { return len(t.Time) }

// WeightAt returns the weight of sample i, defaulting to one unit.
func (t *SamplesTable) WeightAt(i int) float64 {
	if t.Weight == nil {
		return 1
	}
	return t.Weight[i]
}

// TotalWeight sums the weight of all samples, including ones with no stack.
func (t *SamplesTable) TotalWeight() float64 {
	if t.Weight == nil {
		return float64(t.Len())
	}
	var total float64
	for _, w := range t.Weight {
		total += w
	}
	return total
}
