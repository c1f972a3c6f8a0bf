package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/config"
	"github.com/msalah0e/flowviz/internal/engine"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/schedule"
	"github.com/msalah0e/flowviz/internal/ui"
)

func pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick <graph> <x> <y>",
		Short: "Report which node sits under a screen point",
		Long: `Mount the graph and hit-test a viewport coordinate, the same way a
pointer press is resolved in the live view.

  flowviz pick graph.yaml 400 100
  flowviz pick graph.yaml 400 300 -r solid`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: graphFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			x, errX := strconv.ParseFloat(args[1], 64)
			y, errY := strconv.ParseFloat(args[2], 64)
			if errX != nil || errY != nil {
				ui.Bad.Println("  x and y must be numbers")
				os.Exit(1)
			}

			id, ok, err := runPick(cfg, logger, args[0], x, y)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if !ok {
				fmt.Printf("  No node at (%g, %g)\n", x, y)
				os.Exit(1)
			}
			fmt.Println(id)
		},
	}
}

func runPick(c *config.Config, log *zap.Logger, path string, x, y float64) (string, bool, error) {
	g, err := graph.LoadFile(path)
	if err != nil {
		return "", false, err
	}
	opts := engineOptions(c, g, log)
	opts.Scheduler = schedule.NewManual(c.Render.FPS)
	v, err := engine.Mount(opts)
	if err != nil {
		return "", false, err
	}
	defer v.Unmount()
	id, ok := v.Renderer().Pick(x, y)
	return id, ok, nil
}
