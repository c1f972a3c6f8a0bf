package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/ui"
)

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <graph>",
		Short: "Export a graph as Graphviz DOT or normalized JSON",
		Long: `Export the graph in another format.

  flowviz export graph.yaml                 # DOT on stdout
  flowviz export graph.yaml -f json         # normalized JSON
  flowviz export graph.yaml -o graph.dot    # write to a file`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			g, err := graph.LoadFile(args[0])
			if err != nil {
				ui.Bad.Fprintf(os.Stderr, "  %v\n", err)
				os.Exit(1)
			}

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					ui.Bad.Fprintf(os.Stderr, "  %v\n", err)
					os.Exit(1)
				}
				defer f.Close()
				w = f
			}
			if err := exportGraph(w, g, format); err != nil {
				ui.Bad.Fprintf(os.Stderr, "  %v\n", err)
				os.Exit(1)
			}
			if out != "" {
				ui.Good.Printf("  %s Exported to %s\n", ui.StatusIcon(true), out)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format: dot or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	return cmd
}

func exportGraph(w io.Writer, g *graph.Graph, format string) error {
	switch format {
	case "dot":
		_, err := io.WriteString(w, g.ExportDOT())
		return err
	case "json":
		data, err := g.ExportJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		return fmt.Errorf("unknown export format %q (want dot or json)", format)
	}
}
