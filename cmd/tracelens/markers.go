package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/tracelens/pkg/model"
)

type markersParams struct {
	*viewParams
	search string
}

func addMarkersParams(cmd *kingpin.CmdClause) *markersParams {
	params := &markersParams{viewParams: addViewParams(cmd)}
	cmd.Flag("search", "Comma-separated search tokens; a marker matches when any token matches.").StringVar(&params.search)
	return params
}

func printMarkers(params *markersParams) error {
	q, view, err := params.open()
	if err != nil {
		return err
	}
	view.MarkerSearch = params.search

	th := q.Thread()
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tNAME\tCATEGORY\tTYPE")
	for _, i := range q.Markers(view) {
		m := th.Markers.MarkerAt(i)
		end := "-"
		if !model.IsNull(m.End) {
			end = fmt.Sprintf("%.1fms", m.End)
		}
		category := "-"
		if m.Category != model.NoIndex {
			category = th.Categories[m.Category].Name
		}
		payload := "-"
		if m.Payload != nil {
			payload = m.Payload.Tag()
		}
		fmt.Fprintf(w, "%.1fms\t%s\t%s\t%s\t%s\n", m.Start, end, m.Name, category, payload)
	}
	return w.Flush()
}
