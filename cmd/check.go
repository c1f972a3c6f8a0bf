package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/flowviz/internal/config"
	"github.com/msalah0e/flowviz/internal/flow"
	"github.com/msalah0e/flowviz/internal/geom"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/ui"
)

type checkReport struct {
	Stats      graph.Stats
	Categories []string
	Broken     []error
	Degenerate []graph.ConnectionID

	// Longest is the connection with the longest curve, a particle's
	// slowest trip on screen.
	Longest    graph.ConnectionID
	LongestLen float64
}

func (r *checkReport) OK() bool {
	return len(r.Broken) == 0 && len(r.Degenerate) == 0
}

func checkCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:               "check <graph>",
		Short:             "Validate a graph file and report connections that cannot animate",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			report, err := runCheck(cfg, args[0])
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			ui.Banner("check")
			fields := []ui.Field{
				{Key: "Nodes", Value: report.Stats.Nodes},
				{Key: "Connections", Value: report.Stats.Connections},
				{Key: "Categories", Value: ui.Categories(report.Categories)},
			}
			if report.Longest != "" {
				fields = append(fields, ui.Field{Key: "Longest path", Value: fmt.Sprintf("%s (%.0f px)", report.Longest, report.LongestLen)})
			}
			ui.Fields(fields...)
			fmt.Println()

			if report.OK() {
				fmt.Printf("  %s all connections resolve\n", ui.StatusIcon(true))
				return
			}

			var rows [][]string
			for _, err := range report.Broken {
				var de *graph.DataIntegrityError
				if errors.As(err, &de) {
					rows = append(rows, []string{string(de.Connection), "missing node " + de.Missing})
				}
			}
			for _, id := range report.Degenerate {
				rows = append(rows, []string{string(id), "endpoints coincide"})
			}
			ui.Table([]string{"Connection", "Problem"}, rows)
			fmt.Printf("\n  %s %s will be skipped\n", ui.WarnIcon(), ui.Plural(len(rows), "connection"))
			if strict {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any connection is skipped")

	return cmd
}

// runCheck loads the graph and finds connections the renderers will skip:
// those naming a missing node and those whose endpoints share a center.
func runCheck(c *config.Config, path string) (*checkReport, error) {
	g, err := graph.LoadFile(path)
	if err != nil {
		return nil, err
	}
	links, broken := g.Resolve()
	report := &checkReport{
		Stats:      g.GetStats(),
		Categories: g.Categories(),
		Broken:     broken,
	}

	a := flow.New(flow.Options{
		Step:        c.Render.FlowStep,
		Radius:      c.Render.NodeRadius,
		CurveOffset: c.Render.CurveOffset,
	})
	for _, l := range links {
		curve, err := a.Curve(l, g)
		var dg *geom.DegenerateGeometryError
		if errors.As(err, &dg) {
			report.Degenerate = append(report.Degenerate, l.ID)
			continue
		}
		if err != nil {
			continue
		}
		if n := curve.Length(32); n > report.LongestLen {
			report.Longest, report.LongestLen = l.ID, n
		}
	}
	return report, nil
}
