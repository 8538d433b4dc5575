// Package jank converts the raw per-sample responsiveness signal into
// human-meaningful stall intervals. Two legacy input shapes normalize to the
// same model: the old responsiveness counter, which rises while the event
// loop is blocked and resets once it flushes, and the cumulative event-delay
// series, which first needs decomposition into per-event contributions and a
// decay simulation.
package jank

import "github.com/grafana/tracelens/pkg/model"

// Instance is one detected stall: the event loop was blocked over
// [Start, End], with End holding the sample where the peak delay was
// observed and End-Start equal to the peak value.
type Instance struct {
	Start float64
	End   float64
}

// Duration returns the peak delay of the instance.
func (i Instance) Duration() float64 { return i.End - i.Start }

// Instances derives jank instances from whichever responsiveness column the
// samples carry. A thread with neither column reports no jank. The threshold
// is exclusive: a peak of exactly zero (or below the threshold) produces no
// instance.
func Instances(samples *model.SamplesTable, interval, threshold float64) []Instance {
	switch {
	case samples.Responsiveness != nil:
		return instancesFromSeries(samples.Time, samples.Responsiveness, threshold)
	case samples.EventDelay != nil:
		info, ok := ProcessEventDelays(samples, interval)
		if !ok {
			return nil
		}
		return instancesFromSeries(samples.Time, info.Delays, threshold)
	default:
		return nil
	}
}

// instancesFromSeries scans a rising-then-resetting delay series. A jank
// instance ends at the sample holding the peak value, i.e. the last non-null
// sample before a detected reset; null samples are skipped without resetting
// the in-progress peak search. A rising run that never resets before the
// series ends yields nothing: its peak is not yet known.
func instancesFromSeries(times, values []float64, threshold float64) []Instance {
	var out []Instance
	lastValue := 0.0
	lastTime := 0.0
	for i, v := range values {
		if model.IsNull(v) {
			continue
		}
		if v < lastValue && lastValue > threshold {
			out = append(out, Instance{Start: lastTime - lastValue, End: lastTime})
		}
		lastValue = v
		lastTime = times[i]
	}
	return out
}

// EventDelayInfo is the normalized event-delay signal: a dense per-sample
// delay array plus its summary statistics over the nonzero entries.
type EventDelayInfo struct {
	Delays     []float64
	MaxDelay   float64
	MinDelay   float64
	DelayRange float64
}

// ProcessEventDelays decomposes the cumulative event-delay column into
// discrete per-event contributions and simulates their decay. At each reset
// (the raw value falls between consecutive non-null samples) the estimated
// true peak is the last raw value plus the elapsed time to the reset sample
// plus one sampling interval, since the delay kept accruing after the last
// measurement. The peak is anchored at the reset sample and spread backwards
// at a fixed decay of one unit per unit of time; where two peaks' decay
// windows overlap their contributions sum, so a second stall beginning
// before the first fully decays produces a higher combined value.
//
// Returns ok=false when the samples carry no event-delay column.
func ProcessEventDelays(samples *model.SamplesTable, interval float64) (EventDelayInfo, bool) {
	raw := samples.EventDelay
	if raw == nil {
		return EventDelayInfo{}, false
	}
	info := EventDelayInfo{Delays: make([]float64, len(raw))}

	lastIdx := -1
	for i, v := range raw {
		if model.IsNull(v) {
			continue
		}
		if lastIdx >= 0 && v < raw[lastIdx] && raw[lastIdx] > 0 {
			peak := raw[lastIdx] + (samples.Time[i] - samples.Time[lastIdx]) + interval
			for j := i; j >= 0; j-- {
				contribution := peak - (samples.Time[i] - samples.Time[j])
				if contribution <= 0 {
					break
				}
				info.Delays[j] += contribution
			}
		}
		lastIdx = i
	}

	for _, d := range info.Delays {
		if d <= 0 {
			continue
		}
		if d > info.MaxDelay {
			info.MaxDelay = d
		}
		if info.MinDelay == 0 || d < info.MinDelay {
			info.MinDelay = d
		}
	}
	info.DelayRange = info.MaxDelay - info.MinDelay
	return info, true
}

// AppendMarkers materializes jank instances as rows of a marker table, for
// the timeline view's marker stream.
func AppendMarkers(mt *model.MarkerTable, instances []Instance, category int32) {
	for _, in := range instances {
		mt.Append("Jank", in.Start, in.End, category, &model.JankPayload{Delay: in.Duration()})
	}
}
