package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/xlab/treeprint"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/tracelens/pkg/model"
	"github.com/grafana/tracelens/pkg/querier"
)

type treeParams struct {
	*viewParams
	maxDepth int
}

func addTreeParams(cmd *kingpin.CmdClause) *treeParams {
	params := &treeParams{viewParams: addViewParams(cmd)}
	cmd.Flag("max-depth", "Deepest call-node level to print, 0 for no limit.").Default("0").IntVar(&params.maxDepth)
	return params
}

func printTree(params *treeParams) error {
	q, view, err := params.open()
	if err != nil {
		return err
	}
	v := q.TreeView(view)
	fmt.Fprint(os.Stdout, renderTree(v, params.maxDepth))
	return nil
}

func renderTree(v *querier.TreeView, maxDepth int) string {
	label := func(node int32) string {
		name := v.Thread.Funcs.Name[v.Tree.FuncIndex[node]]
		wt := v.Thread.Samples.WeightType
		return fmt.Sprintf("%s: self %s total %s", name, formatWeight(v.Times.Self[node], wt), formatWeight(v.Times.Total[node], wt))
	}

	type branch struct {
		nodes []int32
		depth int
		treeprint.Tree
	}
	out := treeprint.New()
	remaining := []*branch{{nodes: v.Tree.Roots, depth: 1, Tree: out}}
	for len(remaining) > 0 {
		current := remaining[0]
		remaining = remaining[1:]
		for _, node := range current.nodes {
			children := v.Tree.Children(node)
			if len(children) > 0 && (maxDepth == 0 || current.depth < maxDepth) {
				remaining = append(remaining, &branch{
					nodes: children,
					depth: current.depth + 1,
					Tree:  current.Tree.AddBranch(label(node)),
				})
			} else {
				current.Tree.AddNode(label(node))
			}
		}
	}
	return out.String()
}

func formatWeight(w float64, wt model.WeightType) string {
	switch wt {
	case model.WeightTypeBytes:
		return humanize.IBytes(uint64(w))
	case model.WeightTypeTracingMs:
		return strconv.FormatFloat(w, 'f', 2, 64) + "ms"
	default:
		return humanize.Comma(int64(w))
	}
}
