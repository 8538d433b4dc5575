package convert

import (
	"bufio"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grafana/tracelens/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// threadDTO is the serialized thread layout. Nullable columns use pointer
// slices, matching the in-memory NoIndex and NaN conventions on load.
type threadDTO struct {
	Name       string           `json:"name"`
	Interval   float64          `json:"interval"`
	Categories []categoryDTO    `json:"categories"`
	Funcs      funcTableDTO     `json:"funcTable"`
	Resources  resourceTableDTO `json:"resourceTable"`
	Frames     frameTableDTO    `json:"frameTable"`
	Stacks     stackTableDTO    `json:"stackTable"`
	Samples    samplesDTO       `json:"samples"`
	Markers    markerTableDTO   `json:"markers"`
}

type categoryDTO struct {
	Name          string   `json:"name"`
	Color         string   `json:"color"`
	Subcategories []string `json:"subcategories"`
}

type funcTableDTO struct {
	Name     []string `json:"name"`
	Resource []*int32 `json:"resource"`
	IsJS     []bool   `json:"isJS"`
}

type resourceTableDTO struct {
	Name []string `json:"name"`
}

type frameTableDTO struct {
	Func           []int32  `json:"func"`
	Category       []*int32 `json:"category"`
	Subcategory    []*int32 `json:"subcategory"`
	Implementation []string `json:"implementation"`
	InnerWindowID  []int64  `json:"innerWindowID"`
}

type stackTableDTO struct {
	Frame  []int32  `json:"frame"`
	Prefix []*int32 `json:"prefix"`
}

type samplesDTO struct {
	Time           []float64  `json:"time"`
	Stack          []*int32   `json:"stack"`
	Weight         []float64  `json:"weight,omitempty"`
	WeightType     string     `json:"weightType,omitempty"`
	Responsiveness []*float64 `json:"responsiveness,omitempty"`
	EventDelay     []*float64 `json:"eventDelay,omitempty"`
}

type markerTableDTO struct {
	Name     []string         `json:"name"`
	Start    []float64        `json:"startTime"`
	End      []*float64       `json:"endTime"`
	Category []*int32         `json:"category"`
	Data     []*markerDataDTO `json:"data"`
}

// markerDataDTO flattens the payload variants into one object discriminated
// by Type.
type markerDataDTO struct {
	Type string `json:"type"`

	URI         string `json:"uri,omitempty"`
	RequestID   int64  `json:"id,omitempty"`
	Status      string `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Pri         int32  `json:"pri,omitempty"`

	MessageType string `json:"messageType,omitempty"`
	OtherPid    int32  `json:"otherPid,omitempty"`
	Direction   string `json:"direction,omitempty"`
	Sync        bool   `json:"sync,omitempty"`

	Module string `json:"module,omitempty"`
	Text   string `json:"text,omitempty"`

	Name      string `json:"name,omitempty"`
	EntryType string `json:"entryType,omitempty"`

	Delay float64 `json:"delay,omitempty"`
}

// ReadJSON loads a serialized thread, transparently decompressing gzip input.
func ReadJSON(r io.Reader) (*model.Thread, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip stream")
		}
		defer gz.Close()
		return readJSON(gz)
	}
	return readJSON(br)
}

func readJSON(r io.Reader) (*model.Thread, error) {
	var dto threadDTO
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		return nil, errors.Wrap(err, "decoding thread")
	}
	th := dto.thread()
	if err := th.Validate(); err != nil {
		return nil, errors.Wrap(err, "loaded thread")
	}
	return th, nil
}

// WriteJSON serializes the thread, gzipped.
func WriteJSON(w io.Writer, th *model.Thread) error {
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(newThreadDTO(th)); err != nil {
		return errors.Wrap(err, "encoding thread")
	}
	return errors.Wrap(gz.Close(), "flushing gzip stream")
}

func (dto *threadDTO) thread() *model.Thread {
	th := &model.Thread{
		Name:     dto.Name,
		Interval: dto.Interval,
	}
	for _, c := range dto.Categories {
		th.Categories = append(th.Categories, model.Category{
			Name:          c.Name,
			Color:         c.Color,
			Subcategories: c.Subcategories,
		})
	}
	if len(th.Categories) == 0 {
		th.Categories = model.DefaultCategories()
	}

	th.Funcs.Name = dto.Funcs.Name
	th.Funcs.Resource = fromNullableIndexes(dto.Funcs.Resource)
	th.Funcs.IsJS = dto.Funcs.IsJS
	th.Resources.Name = dto.Resources.Name

	th.Frames.Func = dto.Frames.Func
	th.Frames.Category = fromNullableIndexes(dto.Frames.Category)
	th.Frames.Subcategory = fromNullableIndexes(dto.Frames.Subcategory)
	th.Frames.InnerWindowID = dto.Frames.InnerWindowID
	if th.Frames.InnerWindowID == nil {
		th.Frames.InnerWindowID = make([]int64, len(th.Frames.Func))
	}
	for _, tier := range dto.Frames.Implementation {
		th.Frames.Implementation = append(th.Frames.Implementation, model.TierFromString(tier))
	}
	if th.Frames.Implementation == nil {
		th.Frames.Implementation = make([]model.Tier, len(th.Frames.Func))
	}

	th.Stacks.Frame = dto.Stacks.Frame
	th.Stacks.Prefix = fromNullableIndexes(dto.Stacks.Prefix)

	th.Samples.Time = dto.Samples.Time
	th.Samples.Stack = fromNullableIndexes(dto.Samples.Stack)
	th.Samples.Weight = dto.Samples.Weight
	th.Samples.WeightType = model.WeightType(dto.Samples.WeightType)
	th.Samples.Responsiveness = fromNullableFloats(dto.Samples.Responsiveness)
	th.Samples.EventDelay = fromNullableFloats(dto.Samples.EventDelay)

	for i := range dto.Markers.Name {
		end := model.NullTime()
		if i < len(dto.Markers.End) && dto.Markers.End[i] != nil {
			end = *dto.Markers.End[i]
		}
		category := model.NoIndex
		if i < len(dto.Markers.Category) && dto.Markers.Category[i] != nil {
			category = *dto.Markers.Category[i]
		}
		var payload model.MarkerPayload
		if i < len(dto.Markers.Data) {
			payload = dto.Markers.Data[i].payload()
		}
		th.Markers.Append(dto.Markers.Name[i], dto.Markers.Start[i], end, category, payload)
	}
	return th
}

func newThreadDTO(th *model.Thread) *threadDTO {
	dto := &threadDTO{
		Name:     th.Name,
		Interval: th.Interval,
	}
	for _, c := range th.Categories {
		dto.Categories = append(dto.Categories, categoryDTO{
			Name:          c.Name,
			Color:         c.Color,
			Subcategories: c.Subcategories,
		})
	}

	dto.Funcs.Name = th.Funcs.Name
	dto.Funcs.Resource = toNullableIndexes(th.Funcs.Resource)
	dto.Funcs.IsJS = th.Funcs.IsJS
	dto.Resources.Name = th.Resources.Name

	dto.Frames.Func = th.Frames.Func
	dto.Frames.Category = toNullableIndexes(th.Frames.Category)
	dto.Frames.Subcategory = toNullableIndexes(th.Frames.Subcategory)
	dto.Frames.InnerWindowID = th.Frames.InnerWindowID
	for _, tier := range th.Frames.Implementation {
		dto.Frames.Implementation = append(dto.Frames.Implementation, tier.String())
	}

	dto.Stacks.Frame = th.Stacks.Frame
	dto.Stacks.Prefix = toNullableIndexes(th.Stacks.Prefix)

	dto.Samples.Time = th.Samples.Time
	dto.Samples.Stack = toNullableIndexes(th.Samples.Stack)
	dto.Samples.Weight = th.Samples.Weight
	dto.Samples.WeightType = string(th.Samples.WeightType)
	dto.Samples.Responsiveness = toNullableFloats(th.Samples.Responsiveness)
	dto.Samples.EventDelay = toNullableFloats(th.Samples.EventDelay)

	for i := 0; i < th.Markers.Len(); i++ {
		dto.Markers.Name = append(dto.Markers.Name, th.Markers.Name[i])
		dto.Markers.Start = append(dto.Markers.Start, th.Markers.Start[i])
		dto.Markers.End = append(dto.Markers.End, toNullableFloat(th.Markers.End[i]))
		dto.Markers.Category = append(dto.Markers.Category, toNullableIndex(th.Markers.Category[i]))
		dto.Markers.Data = append(dto.Markers.Data, newMarkerDataDTO(th.Markers.Payload[i]))
	}
	return dto
}

func (d *markerDataDTO) payload() model.MarkerPayload {
	if d == nil {
		return nil
	}
	switch d.Type {
	case "Network":
		return &model.NetworkPayload{URI: d.URI, RequestID: d.RequestID, Status: d.Status, ContentType: d.ContentType, Pri: d.Pri}
	case "IPC":
		return &model.IPCPayload{MessageType: d.MessageType, OtherPid: d.OtherPid, Direction: d.Direction, Sync: d.Sync}
	case "Log":
		return &model.LogPayload{Module: d.Module, Text: d.Text}
	case "UserTiming":
		return &model.UserTimingPayload{Name: d.Name, EntryType: d.EntryType}
	case "Text":
		return &model.TextPayload{Text: d.Text}
	case "Jank":
		return &model.JankPayload{Delay: d.Delay}
	default:
		return nil
	}
}

func newMarkerDataDTO(p model.MarkerPayload) *markerDataDTO {
	switch p := p.(type) {
	case *model.NetworkPayload:
		return &markerDataDTO{Type: p.Tag(), URI: p.URI, RequestID: p.RequestID, Status: p.Status, ContentType: p.ContentType, Pri: p.Pri}
	case *model.IPCPayload:
		return &markerDataDTO{Type: p.Tag(), MessageType: p.MessageType, OtherPid: p.OtherPid, Direction: p.Direction, Sync: p.Sync}
	case *model.LogPayload:
		return &markerDataDTO{Type: p.Tag(), Module: p.Module, Text: p.Text}
	case *model.UserTimingPayload:
		return &markerDataDTO{Type: p.Tag(), Name: p.Name, EntryType: p.EntryType}
	case *model.TextPayload:
		return &markerDataDTO{Type: p.Tag(), Text: p.Text}
	case *model.JankPayload:
		return &markerDataDTO{Type: p.Tag(), Delay: p.Delay}
	default:
		return nil
	}
}

func fromNullableIndexes(in []*int32) []int32 {
	if in == nil {
		return nil
	}
	out := make([]int32, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = model.NoIndex
		} else {
			out[i] = *v
		}
	}
	return out
}

func toNullableIndexes(in []int32) []*int32 {
	if in == nil {
		return nil
	}
	out := make([]*int32, len(in))
	for i, v := range in {
		out[i] = toNullableIndex(v)
	}
	return out
}

func toNullableIndex(v int32) *int32 {
	if v == model.NoIndex {
		return nil
	}
	return &v
}

func fromNullableFloats(in []*float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = model.NullTime()
		} else {
			out[i] = *v
		}
	}
	return out
}

func toNullableFloats(in []float64) []*float64 {
	if in == nil {
		return nil
	}
	out := make([]*float64, len(in))
	for i, v := range in {
		out[i] = toNullableFloat(v)
	}
	return out
}

func toNullableFloat(v float64) *float64 {
	if model.IsNull(v) {
		return nil
	}
	return &v
}
