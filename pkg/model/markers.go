package model

import "strconv"

// MarkerTable stores instant and interval events in parallel columns, one
// slot per marker index. End is NaN for instant markers. Payload entries may
// be nil.
type MarkerTable struct {
	Name     []string
	Start    []float64
	End      []float64
	Category []int32 // NoIndex when uncategorized
	Payload  []MarkerPayload
}

func (t *MarkerTable) Len() int { return len(t.Name) }

func (t *MarkerTable) Append(name string, start, end float64, category int32, payload MarkerPayload) int32 {
	t.Name = append(t.Name, name)
	t.Start = append(t.Start, start)
	t.End = append(t.End, end)
	t.Category = append(t.Category, category)
	t.Payload = append(t.Payload, payload)
	return int32(t.Len() - 1)
}

// IsInterval reports whether marker i has an end time.
func (t *MarkerTable) IsInterval(i int32) bool { return !IsNull(t.End[i]) }

// Marker is the materialized view of one row, for collaborators that want a
// value rather than column access.
type Marker struct {
	Name     string
	Start    float64
	End      float64 // NaN for instant markers
	Category int32
	Payload  MarkerPayload
}

// MarkerAt materializes marker i.
func (t *MarkerTable) MarkerAt(i int32) Marker {
	return Marker{
		Name:     t.Name[i],
		Start:    t.Start[i],
		End:      t.End[i],
		Category: t.Category[i],
		Payload:  t.Payload[i],
	}
}

// MarkerPayload is the closed set of typed payload variants. Dispatch is on
// Tag; SearchFields exposes the strings the marker search matches against.
type MarkerPayload interface {
	Tag() string
	SearchFields() []string
}

// NetworkPayload carries network request metadata.
type NetworkPayload struct {
	URI         string
	RequestID   int64
	Status      string
	ContentType string
	Pri         int32
}

func (p *NetworkPayload) Tag() string { return "Network" }

func (p *NetworkPayload) SearchFields() []string {
	return []string{p.URI, p.Status, p.ContentType}
}

// IPCPayload carries inter-process message metadata.
type IPCPayload struct {
	MessageType string
	OtherPid    int32
	Direction   string
	Sync        bool
}

func (p *IPCPayload) Tag() string { return "IPC" }

func (p *IPCPayload) SearchFields() []string {
	return []string{p.MessageType, p.Direction, strconv.Itoa(int(p.OtherPid))}
}

// LogPayload carries one log line.
type LogPayload struct {
	Module string
	Text   string
}

func (p *LogPayload) Tag() string { return "Log" }

func (p *LogPayload) SearchFields() []string { return []string{p.Module, p.Text} }

// UserTimingPayload carries performance.mark/measure entries.
type UserTimingPayload struct {
	Name      string
	EntryType string
}

func (p *UserTimingPayload) Tag() string { return "UserTiming" }

func (p *UserTimingPayload) SearchFields() []string { return []string{p.Name, p.EntryType} }

// TextPayload carries a free-form detail string.
type TextPayload struct {
	Text string
}

func (p *TextPayload) Tag() string { return "Text" }

func (p *TextPayload) SearchFields() []string { return []string{p.Text} }

// JankPayload marks a derived responsiveness stall.
type JankPayload struct {
	Delay float64
}

func (p *JankPayload) Tag() string { return "Jank" }

func (p *JankPayload) SearchFields() []string { return nil }
