package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msalah0e/flowviz/internal/live"
	"github.com/msalah0e/flowviz/internal/ui"
)

func viewCmd() *cobra.Command {
	var (
		addr    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:     "view <graph>",
		Aliases: []string{"serve", "live"},
		Short:   "Serve an interactive view in the browser",
		Long: `Serve the animated graph on a local web page. Frames stream to the
page over a websocket and pointer events flow back, so nodes can be
dragged and clicked. Edits to the graph file remount the view.

  flowviz view graph.yaml
  flowviz view graph.yaml --addr :8080 -r solid`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			if addr == "" {
				addr = cfg.Live.Addr
			}
			assets, err := webAssets()
			if err != nil {
				ui.Bad.Printf("  Failed to load web assets: %v\n", err)
				os.Exit(1)
			}

			srv, err := live.New(live.Options{
				Addr:      addr,
				GraphPath: args[0],
				Watch:     cfg.Live.Watch && !noWatch,
				FPS:       cfg.Render.FPS,
				Width:     cfg.Render.Width,
				Height:    cfg.Render.Height,
				Assets:    assets,
				Engine:    engineOptions(cfg, nil, logger),
				Logger:    logger,
			})
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			ui.Banner("live view")
			fields := []ui.Field{
				{Key: "Graph", Value: args[0]},
				{Key: "Renderer", Value: cfg.Render.Renderer},
				{Key: "Open", Value: ui.Info.Sprintf("http://%s", addr)},
			}
			if cfg.Events.Enabled {
				fields = append(fields, ui.Field{Key: "Events", Value: eventsPath(cfg)})
			}
			ui.Fields(fields...)
			fmt.Println()
			ui.Subtle.Println("  Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload when the graph file changes")

	return cmd
}
