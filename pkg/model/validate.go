package model

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate enforces the structural contract the pipeline assumes and does
// not re-check: nondecreasing nonnegative sample times, prefix ordering of
// the stack table, and in-range index references. It is meant to be called
// by the loading collaborator right after a thread is built; violations are
// fatal input errors, not conditions the pipeline degrades on. All defects
// are collected so a malformed trace is reported in one pass.
func (t *Thread) Validate() error {
	var result *multierror.Error

	if t.Interval <= 0 {
		result = multierror.Append(result, errors.Errorf("sampling interval must be positive, got %v", t.Interval))
	}

	for i, fn := range t.Frames.Func {
		if fn < 0 || int(fn) >= t.Funcs.Len() {
			result = multierror.Append(result, errors.Errorf("frame %d references function %d out of range", i, fn))
		}
	}
	for i, resource := range t.Funcs.Resource {
		if resource != NoIndex && int(resource) >= t.Resources.Len() {
			result = multierror.Append(result, errors.Errorf("function %d references resource %d out of range", i, resource))
		}
	}

	for i := 0; i < t.Stacks.Len(); i++ {
		frame := t.Stacks.Frame[i]
		if frame < 0 || int(frame) >= t.Frames.Len() {
			result = multierror.Append(result, errors.Errorf("stack %d references frame %d out of range", i, frame))
		}
		prefix := t.Stacks.Prefix[i]
		if prefix != NoIndex && (prefix < 0 || int(prefix) >= t.Stacks.Len()) {
			result = multierror.Append(result, errors.Errorf("stack %d references nonexistent prefix %d", i, prefix))
		} else if prefix >= int32(i) {
			result = multierror.Append(result, errors.Errorf("stack %d references prefix %d, breaking parent-before-child ordering", i, prefix))
		}
	}

	lastTime := 0.0
	for i, tm := range t.Samples.Time {
		if tm < 0 {
			result = multierror.Append(result, errors.Errorf("sample %d has negative time %v", i, tm))
		}
		if tm < lastTime {
			result = multierror.Append(result, errors.Errorf("sample %d time %v decreases below %v", i, tm, lastTime))
		}
		lastTime = tm
		if stack := t.Samples.Stack[i]; stack != NoIndex && (stack < 0 || int(stack) >= t.Stacks.Len()) {
			result = multierror.Append(result, errors.Errorf("sample %d references stack %d out of range", i, stack))
		}
	}
	if err := t.validateSampleColumns(); err != nil {
		result = multierror.Append(result, err)
	}

	for i := 0; i < t.Markers.Len(); i++ {
		if end := t.Markers.End[i]; !IsNull(end) && end < t.Markers.Start[i] {
			result = multierror.Append(result, errors.Errorf("marker %d ends at %v before its start %v", i, end, t.Markers.Start[i]))
		}
	}

	return result.ErrorOrNil()
}

func (t *Thread) validateSampleColumns() error {
	var result *multierror.Error
	n := t.Samples.Len()
	if len(t.Samples.Stack) != n {
		result = multierror.Append(result, errors.Errorf("samples stack column has %d entries, want %d", len(t.Samples.Stack), n))
	}
	if t.Samples.Weight != nil && len(t.Samples.Weight) != n {
		result = multierror.Append(result, errors.Errorf("samples weight column has %d entries, want %d", len(t.Samples.Weight), n))
	}
	if t.Samples.Responsiveness != nil && len(t.Samples.Responsiveness) != n {
		result = multierror.Append(result, errors.Errorf("samples responsiveness column has %d entries, want %d", len(t.Samples.Responsiveness), n))
	}
	if t.Samples.EventDelay != nil && len(t.Samples.EventDelay) != n {
		result = multierror.Append(result, errors.Errorf("samples eventDelay column has %d entries, want %d", len(t.Samples.EventDelay), n))
	}
	return result.ErrorOrNil()
}
