// Package convert loads external profile formats into the columnar thread
// model. Every loader validates the thread it builds before handing it out.
package convert

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"
	"github.com/pkg/errors"

	"github.com/grafana/tracelens/pkg/model"
)

// FromPprof builds a thread from a pprof profile, gzipped or not. Aggregated
// pprof samples carry no timestamps, so sample times are synthesized at one
// sampling interval apart; time-window selection over such a thread slices by
// sample position rather than wall clock.
func FromPprof(r io.Reader) (*model.Thread, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing pprof profile")
	}
	if len(p.SampleType) == 0 {
		return nil, errors.New("pprof profile carries no sample types")
	}

	// By pprof convention the last sample type is the primary one.
	valueIndex := len(p.SampleType) - 1
	weightType, scale := weightSemantics(p.SampleType[valueIndex].Unit)

	th := &model.Thread{
		Name:       "pprof",
		Interval:   pprofInterval(p),
		Categories: model.DefaultCategories(),
	}
	b := newTableBuilder(th)

	for i, s := range p.Sample {
		stack := model.NoIndex
		// Locations are leaf-first; walk them root-first.
		for li := len(s.Location) - 1; li >= 0; li-- {
			loc := s.Location[li]
			if len(loc.Line) == 0 {
				stack = b.stack(b.addressFrame(loc), stack)
				continue
			}
			for lj := len(loc.Line) - 1; lj >= 0; lj-- {
				stack = b.stack(b.lineFrame(loc, loc.Line[lj]), stack)
			}
		}
		th.Samples.Time = append(th.Samples.Time, float64(i)*th.Interval)
		th.Samples.Stack = append(th.Samples.Stack, stack)
		th.Samples.Weight = append(th.Samples.Weight, float64(s.Value[valueIndex])*scale)
	}
	th.Samples.WeightType = weightType

	if err := th.Validate(); err != nil {
		return nil, errors.Wrap(err, "converted pprof profile")
	}
	return th, nil
}

func weightSemantics(unit string) (model.WeightType, float64) {
	switch unit {
	case "nanoseconds":
		return model.WeightTypeTracingMs, 1e-6
	case "milliseconds":
		return model.WeightTypeTracingMs, 1
	case "bytes":
		return model.WeightTypeBytes, 1
	default:
		return model.WeightTypeSamples, 1
	}
}

func pprofInterval(p *profile.Profile) float64 {
	if p.PeriodType != nil && p.PeriodType.Unit == "nanoseconds" && p.Period > 0 {
		return float64(p.Period) / 1e6
	}
	return 1
}

// tableBuilder interns pprof entities into the thread's tables.
type tableBuilder struct {
	th        *model.Thread
	funcs     map[uint64]int32 // pprof function id
	resources map[string]int32
	frames    map[uint64]int32 // address-only locations
	inline    map[[2]uint64]int32
	stacks    map[[2]int32]int32
	addrFuncs map[uint64]int32
}

func newTableBuilder(th *model.Thread) *tableBuilder {
	return &tableBuilder{
		th:        th,
		funcs:     map[uint64]int32{},
		resources: map[string]int32{},
		frames:    map[uint64]int32{},
		inline:    map[[2]uint64]int32{},
		stacks:    map[[2]int32]int32{},
		addrFuncs: map[uint64]int32{},
	}
}

func (b *tableBuilder) resource(m *profile.Mapping) int32 {
	if m == nil || m.File == "" {
		return model.NoIndex
	}
	if idx, ok := b.resources[m.File]; ok {
		return idx
	}
	idx := b.th.Resources.Append(m.File)
	b.resources[m.File] = idx
	return idx
}

func (b *tableBuilder) fn(f *profile.Function, mapping *profile.Mapping) int32 {
	if idx, ok := b.funcs[f.ID]; ok {
		return idx
	}
	idx := b.th.Funcs.Append(f.Name, b.resource(mapping), false)
	b.funcs[f.ID] = idx
	return idx
}

func (b *tableBuilder) lineFrame(loc *profile.Location, line profile.Line) int32 {
	key := [2]uint64{loc.ID, line.Function.ID}
	if idx, ok := b.inline[key]; ok {
		return idx
	}
	idx := b.th.Frames.Append(b.fn(line.Function, loc.Mapping), model.NoIndex, model.NoIndex, model.TierNative, 0)
	b.inline[key] = idx
	return idx
}

func (b *tableBuilder) addressFrame(loc *profile.Location) int32 {
	if idx, ok := b.frames[loc.ID]; ok {
		return idx
	}
	fn, ok := b.addrFuncs[loc.Address]
	if !ok {
		fn = b.th.Funcs.Append(fmt.Sprintf("0x%x", loc.Address), b.resource(loc.Mapping), false)
		b.addrFuncs[loc.Address] = fn
	}
	idx := b.th.Frames.Append(fn, model.NoIndex, model.NoIndex, model.TierNative, 0)
	b.frames[loc.ID] = idx
	return idx
}

func (b *tableBuilder) stack(frame, prefix int32) int32 {
	key := [2]int32{frame, prefix}
	if idx, ok := b.stacks[key]; ok {
		return idx
	}
	idx := b.th.Stacks.Append(frame, prefix)
	b.stacks[key] = idx
	return idx
}
