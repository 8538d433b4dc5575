package model

// Category describes one color-coded class of frames, with an ordered list
// of subcategories. Subcategory 0 is conventionally the category's own
// "Other" bucket.
type Category struct {
	Name          string
	Color         string
	Subcategories []string
}

type CategoryList []Category

// IndexByName returns the index of the first category with the given name,
// or NoIndex.
func (l CategoryList) IndexByName(name string) int32 {
	for i, c := range l {
		if c.Name == name {
			return int32(i)
		}
	}
	return NoIndex
}

// OtherCategoryIndex returns the index of the fallback "Other" category.
// Frames without a category resolve here when no ancestor provides one.
func (l CategoryList) OtherCategoryIndex() int32 {
	if idx := l.IndexByName("Other"); idx != NoIndex {
		return idx
	}
	return 0
}

// DefaultCategories is used when a trace carries no category list of its own.
func DefaultCategories() CategoryList {
	return CategoryList{
		{Name: "Other", Color: "grey", Subcategories: []string{"Other"}},
		{Name: "Idle", Color: "transparent", Subcategories: []string{"Other"}},
		{Name: "Layout", Color: "purple", Subcategories: []string{"Other"}},
		{Name: "JavaScript", Color: "yellow", Subcategories: []string{"Other"}},
		{Name: "GC / CC", Color: "orange", Subcategories: []string{"Other"}},
		{Name: "Network", Color: "lightblue", Subcategories: []string{"Other"}},
		{Name: "Graphics", Color: "green", Subcategories: []string{"Other"}},
	}
}

// ResolveStackCategories computes the effective category of every stack,
// applying category inheritance: a frame without a category takes the
// nearest ancestor's resolved category (native frames called from managed
// code inherit the caller's category). Stacks with no categorized ancestor
// resolve to the "Other" bucket. The result is indexed by stack id and is
// computed once per stack table, ahead of any aggregation.
func ResolveStackCategories(t *Thread) []int32 {
	other := t.Categories.OtherCategoryIndex()
	resolved := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		category := t.Frames.Category[t.Stacks.Frame[i]]
		if category == NoIndex {
			if prefix := t.Stacks.Prefix[i]; prefix != NoIndex {
				category = resolved[prefix]
			} else {
				category = other
			}
		}
		resolved[i] = category
	}
	return resolved
}

// ResolveStackSubcategories is the companion of ResolveStackCategories: a
// frame with no subcategory, or one that inherited its category, lands in
// subcategory 0 of the resolved category.
func ResolveStackSubcategories(t *Thread, resolvedCategories []int32) []int32 {
	resolved := make([]int32, t.Stacks.Len())
	for i := 0; i < t.Stacks.Len(); i++ {
		frame := t.Stacks.Frame[i]
		sub := t.Frames.Subcategory[frame]
		if t.Frames.Category[frame] != resolvedCategories[i] || sub == NoIndex {
			sub = 0
		}
		resolved[i] = sub
	}
	return resolved
}
