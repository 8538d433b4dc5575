package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/alecthomas/kingpin.v2"
)

type jankParams struct {
	*viewParams
	threshold float64
}

func addJankParams(cmd *kingpin.CmdClause) *jankParams {
	params := &jankParams{viewParams: addViewParams(cmd)}
	cmd.Flag("threshold", "Minimum delay in ms for a stall to count.").Default("50").Float64Var(&params.threshold)
	return params
}

func printJank(params *jankParams) error {
	q, view, err := params.open()
	if err != nil {
		return err
	}
	view.JankThreshold = params.threshold

	instances := q.Jank(view)
	if len(instances) == 0 {
		fmt.Fprintf(os.Stdout, "no stalls above %gms\n", params.threshold)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tDURATION")
	for _, in := range instances {
		fmt.Fprintf(w, "%.1fms\t%.1fms\t%.1fms\n", in.Start, in.End, in.Duration())
	}
	return w.Flush()
}
