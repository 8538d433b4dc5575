package main

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/tracelens/pkg/convert"
	"github.com/grafana/tracelens/pkg/filter"
	"github.com/grafana/tracelens/pkg/model"
	"github.com/grafana/tracelens/pkg/querier"
	"github.com/grafana/tracelens/pkg/transform"
)

// viewParams are the flags shared by every command that opens a trace and
// narrows it to a view.
type viewParams struct {
	input          string
	ranges         []string
	selection      string
	implementation string
	transforms     string
	invert         bool
}

func addViewParams(cmd *kingpin.CmdClause) *viewParams {
	params := &viewParams{}
	cmd.Arg("input", "Trace file: a serialized thread (json, optionally gzipped) or a pprof profile.").Required().ExistingFileVar(&params.input)
	cmd.Flag("range", "Committed time range as start:end in ms, repeatable; ranges are intersected.").StringsVar(&params.ranges)
	cmd.Flag("selection", "Preview selection as start:end in ms.").StringVar(&params.selection)
	cmd.Flag("implementation", "Keep only frames of one implementation.").Default("combined").EnumVar(&params.implementation, "combined", "js", "cpp")
	cmd.Flag("transforms", "Comma-separated transform stack, e.g. ff-3,mf-5.").StringVar(&params.transforms)
	cmd.Flag("invert", "Invert the call tree.").BoolVar(&params.invert)
	return params
}

func (p *viewParams) open() (*querier.Querier, querier.ViewConfig, error) {
	th, err := loadThread(p.input)
	if err != nil {
		return nil, querier.ViewConfig{}, err
	}
	q, err := querier.New(th, querier.Config{Logger: logger})
	if err != nil {
		return nil, querier.ViewConfig{}, err
	}
	view, err := p.viewConfig()
	return q, view, err
}

func (p *viewParams) viewConfig() (querier.ViewConfig, error) {
	view := querier.ViewConfig{
		Implementation: filter.Implementation(p.implementation),
		Invert:         p.invert,
	}
	for _, r := range p.ranges {
		tr, err := parseRange(r)
		if err != nil {
			return view, err
		}
		view.CommittedRanges = append(view.CommittedRanges, tr)
	}
	if p.selection != "" {
		tr, err := parseRange(p.selection)
		if err != nil {
			return view, err
		}
		view.Preview = filter.PreviewSelection{HasSelection: true, SelectionStart: tr.Start, SelectionEnd: tr.End}
	}
	if p.transforms != "" {
		transforms, err := transform.ParseStack(p.transforms)
		if err != nil {
			return view, err
		}
		view.Transforms = transforms
	}
	return view, nil
}

func parseRange(s string) (filter.TimeRange, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return filter.TimeRange{}, errors.Errorf("range %q is not start:end", s)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return filter.TimeRange{}, errors.Wrapf(err, "range %q", s)
	}
	end, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return filter.TimeRange{}, errors.Wrapf(err, "range %q", s)
	}
	if end < start {
		return filter.TimeRange{}, errors.Errorf("range %q ends before it starts", s)
	}
	return filter.TimeRange{Start: start, End: end}, nil
}

// loadThread sniffs the input format: a serialized thread decodes as JSON,
// anything else is handed to the pprof parser.
func loadThread(path string) (*model.Thread, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	th, jsonErr := convert.ReadJSON(bytes.NewReader(data))
	if jsonErr == nil {
		return th, nil
	}
	th, pprofErr := convert.FromPprof(bytes.NewReader(data))
	if pprofErr == nil {
		return th, nil
	}
	return nil, errors.Wrapf(pprofErr, "input %q is neither a serialized thread (%v) nor a pprof profile", path, jsonErr)
}
