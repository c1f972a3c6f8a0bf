package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/config"
	"github.com/msalah0e/flowviz/internal/engine"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/parallel"
	"github.com/msalah0e/flowviz/internal/scene"
	"github.com/msalah0e/flowviz/internal/schedule"
	"github.com/msalah0e/flowviz/internal/ui"
)

type renderRequest struct {
	Graph  string
	Out    string // directory, or "-" for a single frame on stdout
	Format string
	Frames int
	Quiet  bool
}

func renderCmd() *cobra.Command {
	var (
		out    string
		format string
		frames int
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Render animation frames headlessly",
		Long: `Step the graph on a manual clock and write every frame.

  flowviz render graph.yaml                      # one SVG frame into ./frames
  flowviz render graph.yaml -n 120 -f png        # 120 PNG frames
  flowviz render graph.yaml -o - > frame.svg     # single frame to stdout
  flowviz render graph.yaml -r solid -n 30       # solid backend`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: graphFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			if width > 0 {
				cfg.Render.Width = width
			}
			if height > 0 {
				cfg.Render.Height = height
			}
			req := renderRequest{Graph: args[0], Out: out, Format: format, Frames: frames, Quiet: out == "-"}
			if req.Format == "" {
				req.Format = cfg.Render.Format
			}
			if req.Frames <= 0 {
				req.Frames = cfg.Render.Frames
			}

			if out == "-" {
				if err := renderTo(os.Stdout, cfg, logger, req); err != nil {
					ui.Bad.Fprintf(os.Stderr, "  %v\n", err)
					os.Exit(1)
				}
				return
			}

			ui.Banner("render")
			start := time.Now()
			results, err := runRender(cmd.Context(), cfg, logger, req)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			failed := parallel.Failed(results)
			fmt.Println()
			fmt.Printf("  %s written to %s in %s\n", ui.Plural(len(results)-len(failed), "frame"), out, time.Since(start).Round(time.Millisecond))
			if len(failed) > 0 {
				ui.Bad.Printf("  %s failed\n", ui.Plural(len(failed), "frame"))
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "frames", "Output directory, or - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Frame format: svg or png")
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Number of frames to render")
	cmd.Flags().IntVar(&width, "width", 0, "Viewport width")
	cmd.Flags().IntVar(&height, "height", 0, "Viewport height")

	return cmd
}

// captureFrames mounts the graph on a manual clock and collects n frames.
func captureFrames(c *config.Config, log *zap.Logger, path string, n int) ([]*scene.Frame, error) {
	g, err := graph.LoadFile(path)
	if err != nil {
		return nil, err
	}
	opts := engineOptions(c, g, log)
	clock := schedule.NewManual(c.Render.FPS)
	opts.Scheduler = clock

	var frames []*scene.Frame
	opts.Sink = func(f *scene.Frame) { frames = append(frames, f) }

	v, err := engine.Mount(opts)
	if err != nil {
		return nil, err
	}
	defer v.Unmount()
	clock.StepN(n)
	return frames, nil
}

// runRender writes each frame to its own file, encoding in parallel.
func runRender(ctx context.Context, c *config.Config, log *zap.Logger, req renderRequest) ([]parallel.Result, error) {
	if req.Format != "svg" && req.Format != "png" {
		return nil, fmt.Errorf("unknown frame format %q", req.Format)
	}
	frames, err := captureFrames(c, log, req.Graph, req.Frames)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(req.Out, 0o755); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tasks := make([]parallel.Task, 0, len(frames))
	for _, f := range frames {
		name := fmt.Sprintf("frame-%04d.%s", f.Seq, req.Format)
		path := filepath.Join(req.Out, name)
		tasks = append(tasks, parallel.Task{
			Name: name,
			Fn:   func(context.Context) error { return writeFrame(path, req.Format, f) },
		})
	}
	results := parallel.Run(ctx, tasks, parallel.Options{Concurrency: c.Render.Concurrency, Quiet: req.Quiet})
	for _, r := range parallel.Failed(results) {
		log.Warn("frame write failed", zap.String("frame", r.Name), zap.Error(r.Err))
	}
	return results, nil
}

// renderTo writes the last captured frame to w.
func renderTo(w io.Writer, c *config.Config, log *zap.Logger, req renderRequest) error {
	frames, err := captureFrames(c, log, req.Graph, req.Frames)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames rendered")
	}
	return encodeFrame(w, req.Format, frames[len(frames)-1])
}

func writeFrame(path, format string, f *scene.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeFrame(out, format, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func encodeFrame(w io.Writer, format string, f *scene.Frame) error {
	switch format {
	case "png":
		return scene.EncodePNG(w, f)
	case "svg":
		return scene.EncodeSVG(w, f)
	default:
		return fmt.Errorf("unknown frame format %q", format)
	}
}
