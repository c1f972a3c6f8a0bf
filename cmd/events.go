package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/msalah0e/flowviz/internal/events"
	"github.com/msalah0e/flowviz/internal/ui"
)

func eventsCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"log"},
		Short:   "Show node clicks and drags recorded by the live view",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("events")

			entries, err := events.Read(eventsPath(cfg), count)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No events recorded yet.")
				fmt.Println("  Set `enabled = true` under [events] in the config, then use `flowviz view`")
				return
			}

			ui.Table([]string{"Time", "Kind", "Node", "Position"}, eventRows(entries))
			fmt.Printf("\n  Showing %s\n", ui.Plural(len(entries), "recent event"))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show")

	cmd.AddCommand(
		eventsSearchCmd(),
		eventsClearCmd(),
		eventsExportCmd(),
		eventsStatsCmd(),
	)

	return cmd
}

func eventRows(entries []events.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		pos := "-"
		if e.Kind == events.Moved {
			pos = ui.Coords(e.X, e.Y, e.Z)
		}
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04:05"),
			string(e.Kind),
			ui.Truncate(e.Node, 30),
			pos,
		})
	}
	return rows
}

func eventsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search events by node id or kind",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := events.Search(eventsPath(cfg), args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No events matching %q\n", args[0])
				return
			}

			ui.Banner("search results")
			ui.Table([]string{"Time", "Kind", "Node", "Position"}, eventRows(results))
			fmt.Printf("\n  %s\n", ui.Plural(len(results), "result"))
		},
	}
}

func eventsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the event log",
		Run: func(cmd *cobra.Command, args []string) {
			if err := events.Clear(eventsPath(cfg)); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Event log cleared\n", ui.StatusIcon(true))
		},
	}
}

func eventsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the event log as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := events.Read(eventsPath(cfg), 0)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if entries == nil {
				entries = []events.Entry{}
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
		},
	}
}

type nodeCount struct {
	Node      string
	Activated int
	Moved     int
}

// tally counts events per node, busiest first.
func tally(entries []events.Entry) []nodeCount {
	byNode := make(map[string]*nodeCount)
	for _, e := range entries {
		c, ok := byNode[e.Node]
		if !ok {
			c = &nodeCount{Node: e.Node}
			byNode[e.Node] = c
		}
		switch e.Kind {
		case events.Activated:
			c.Activated++
		case events.Moved:
			c.Moved++
		}
	}
	out := make([]nodeCount, 0, len(byNode))
	for _, c := range byNode {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Activated+out[i].Moved, out[j].Activated+out[j].Moved
		if ti != tj {
			return ti > tj
		}
		return out[i].Node < out[j].Node
	})
	return out
}

func eventsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show event counts per node",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("event stats")

			entries, err := events.Read(eventsPath(cfg), 0)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No event data")
				return
			}

			var rows [][]string
			for _, c := range tally(entries) {
				rows = append(rows, []string{c.Node, fmt.Sprint(c.Activated), fmt.Sprint(c.Moved)})
			}
			fmt.Printf("  Total entries: %d\n\n", len(entries))
			ui.Table([]string{"Node", "Activated", "Moved"}, rows)
		},
	}
}
