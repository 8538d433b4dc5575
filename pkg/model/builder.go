package model

// FrameSpec describes one frame on a stack being assembled by ThreadBuilder.
// The zero value of every optional field means "absent". Distinct specs that
// compare equal share a frame row; set Dup to force a separate frame
// occurrence of the same function.
type FrameSpec struct {
	Name        string
	Tier        Tier
	Category    string // resolved against the thread's category list, "" = none
	Subcategory string
	Resource    string // "" = none
	IsJS        bool
	WindowID    int64
	Dup         int
}

// F is shorthand for a plain native frame.
func F(name string) FrameSpec { return FrameSpec{Name: name} }

// JS is shorthand for a managed frame with a tier.
func JS(name string, tier Tier) FrameSpec { return FrameSpec{Name: name, Tier: tier, IsJS: true} }

// ThreadBuilder assembles a Thread table by table. It interns functions by
// name, resources by name, frames by their full spec and stacks by
// (frame, prefix), so the resulting tables stay in prefix order with parents
// preceding children.
type ThreadBuilder struct {
	thread      Thread
	funcsByName map[string]int32
	resByName   map[string]int32
	framesByKey map[FrameSpec]int32
	stacksByKey map[[2]int32]int32
}

func NewThreadBuilder() *ThreadBuilder {
	return &ThreadBuilder{
		thread: Thread{
			Name:       "GeckoMain",
			Interval:   1,
			Categories: DefaultCategories(),
		},
		funcsByName: map[string]int32{},
		resByName:   map[string]int32{},
		framesByKey: map[FrameSpec]int32{},
		stacksByKey: map[[2]int32]int32{},
	}
}

func (b *ThreadBuilder) SetInterval(ms float64) *ThreadBuilder {
	b.thread.Interval = ms
	return b
}

func (b *ThreadBuilder) SetCategories(categories CategoryList) *ThreadBuilder {
	b.thread.Categories = categories
	return b
}

func (b *ThreadBuilder) SetWeightType(wt WeightType) *ThreadBuilder {
	b.thread.Samples.WeightType = wt
	return b
}

func (b *ThreadBuilder) fn(spec FrameSpec) int32 {
	if idx, ok := b.funcsByName[spec.Name]; ok {
		return idx
	}
	resource := NoIndex
	if spec.Resource != "" {
		var ok bool
		if resource, ok = b.resByName[spec.Resource]; !ok {
			resource = b.thread.Resources.Append(spec.Resource)
			b.resByName[spec.Resource] = resource
		}
	}
	idx := b.thread.Funcs.Append(spec.Name, resource, spec.IsJS)
	b.funcsByName[spec.Name] = idx
	return idx
}

func (b *ThreadBuilder) frame(spec FrameSpec) int32 {
	if idx, ok := b.framesByKey[spec]; ok {
		return idx
	}
	category := NoIndex
	subcategory := NoIndex
	if spec.Category != "" {
		category = b.thread.Categories.IndexByName(spec.Category)
		if spec.Subcategory != "" && category != NoIndex {
			for i, name := range b.thread.Categories[category].Subcategories {
				if name == spec.Subcategory {
					subcategory = int32(i)
				}
			}
		}
	}
	idx := b.thread.Frames.Append(b.fn(spec), category, subcategory, spec.Tier, spec.WindowID)
	b.framesByKey[spec] = idx
	return idx
}

// Stack interns the root-to-leaf chain of frames and returns the leaf stack
// id, or NoIndex when no frames are given.
func (b *ThreadBuilder) Stack(frames ...FrameSpec) int32 {
	prefix := NoIndex
	for _, spec := range frames {
		frame := b.frame(spec)
		key := [2]int32{frame, prefix}
		idx, ok := b.stacksByKey[key]
		if !ok {
			idx = b.thread.Stacks.Append(frame, prefix)
			b.stacksByKey[key] = idx
		}
		prefix = idx
	}
	return prefix
}

// AddSample appends a unit-weight sample at the given time over the given
// frames; no frames means a sample with no captured stack.
func (b *ThreadBuilder) AddSample(time float64, frames ...FrameSpec) *ThreadBuilder {
	return b.addSample(time, b.Stack(frames...))
}

// AddWeightedSample appends a sample with an explicit weight. The first call
// backfills unit weights for earlier samples.
func (b *ThreadBuilder) AddWeightedSample(time, weight float64, frames ...FrameSpec) *ThreadBuilder {
	samples := &b.thread.Samples
	if samples.Weight == nil {
		samples.Weight = make([]float64, samples.Len())
		for i := range samples.Weight {
			samples.Weight[i] = 1
		}
	}
	stack := b.Stack(frames...)
	samples.Time = append(samples.Time, time)
	samples.Stack = append(samples.Stack, stack)
	samples.Weight = append(samples.Weight, weight)
	return b
}

func (b *ThreadBuilder) addSample(time float64, stack int32) *ThreadBuilder {
	samples := &b.thread.Samples
	samples.Time = append(samples.Time, time)
	samples.Stack = append(samples.Stack, stack)
	if samples.Weight != nil {
		samples.Weight = append(samples.Weight, 1)
	}
	return b
}

// SetResponsiveness attaches the legacy responsiveness column; the slice
// must have one entry per sample already added (NaN for missing).
func (b *ThreadBuilder) SetResponsiveness(values []float64) *ThreadBuilder {
	b.thread.Samples.Responsiveness = values
	return b
}

// SetEventDelay attaches the event-delay column.
func (b *ThreadBuilder) SetEventDelay(values []float64) *ThreadBuilder {
	b.thread.Samples.EventDelay = values
	return b
}

// AddMarker appends a marker row. Use model.NullTime() as end for instant
// markers.
func (b *ThreadBuilder) AddMarker(name string, start, end float64, category string, payload MarkerPayload) *ThreadBuilder {
	b.thread.Markers.Append(name, start, end, b.thread.Categories.IndexByName(category), payload)
	return b
}

// Build finalizes the thread. The builder must not be reused afterwards.
func (b *ThreadBuilder) Build() *Thread {
	return &b.thread
}
