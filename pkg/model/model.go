// Package model holds the columnar representation of one thread of a
// recorded performance trace: functions, frames, stacks, samples and
// markers, stored as parallel arrays indexed by int32 ids.
//
// Everything in this package is immutable once built. Downstream stages
// (filtering, transforms, call-node tree construction, timing aggregation)
// derive new structures instead of mutating these tables, so derived views
// can be cached and shared freely.
package model

import "math"

// NoIndex marks the absence of an index reference in any of the columnar
// tables: a stack with no prefix, a function with no resource, a sample with
// no captured stack.
const NoIndex int32 = -1

// NullTime marks an absent float column entry (instant marker end,
// missing responsiveness value).
func NullTime() float64 { return math.NaN() }

// IsNull reports whether a float column entry is absent.
func IsNull(v float64) bool { return math.IsNaN(v) }

// Tier is the execution mode of a frame. Frames of managed (JS) code carry
// the runtime tier that executed them; everything else is native.
type Tier uint8

const (
	TierNative Tier = iota
	TierInterpreter
	TierBaseline
	TierBlinterp
	TierIon
)

var tierNames = [...]string{"native", "interpreter", "baseline", "blinterp", "ion"}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "native"
}

// TierFromString maps a tier name to its Tier, defaulting to native for
// anything unrecognized.
func TierFromString(s string) Tier {
	for i, name := range tierNames {
		if name == s {
			return Tier(i)
		}
	}
	return TierNative
}

// WeightType describes the unit of SamplesTable.Weight. The empty string
// means no explicit weight type is set and each sample counts as one unit;
// traced timing is only meaningful in that case.
type WeightType string

const (
	WeightTypeNone      WeightType = ""
	WeightTypeSamples   WeightType = "samples"
	WeightTypeBytes     WeightType = "bytes"
	WeightTypeTracingMs WeightType = "tracing-ms"
)
