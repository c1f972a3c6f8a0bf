package cmd

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/msalah0e/flowviz/internal/config"
	"github.com/msalah0e/flowviz/internal/engine"
	"github.com/msalah0e/flowviz/internal/events"
	"github.com/msalah0e/flowviz/internal/flow"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/scene"
	"github.com/msalah0e/flowviz/internal/solid"
)

// engineOptions maps the config onto a mount template. Surface, Scheduler
// and Sink are left for the caller.
func engineOptions(c *config.Config, g *graph.Graph, log *zap.Logger) engine.Options {
	r, s := c.Render, c.Solid
	return engine.Options{
		Graph:    g,
		Width:    r.Width,
		Height:   r.Height,
		Renderer: r.Renderer,
		Flow: flow.Options{
			Step:        r.FlowStep,
			Radius:      r.NodeRadius,
			CurveOffset: r.CurveOffset,
		},
		Solid: solid.Options{
			Scale:       r3.Vec{X: s.Scale[0], Y: s.Scale[1], Z: s.Scale[2]},
			Distance:    s.Distance,
			FOV:         s.FOV,
			MeshHalf:    s.MeshHalf,
			Highlight:   s.Highlight,
			Textures:    s.Textures,
			TextureDir:  s.TextureDir,
			TextureSize: s.TextureSize,
		},
		Icons:     scene.IconMap(c.Icons),
		Threshold: r.Threshold,
		Emitter:   emitter(c, log),
		Logger:    log,
	}
}

// emitter logs interactions and, when enabled, appends them to the event log.
func emitter(c *config.Config, log *zap.Logger) events.Emitter {
	out := events.Multi{events.Logger{Log: log}}
	if c.Events.Enabled {
		out = append(out, events.NewLog(eventsPath(c), c.Events.RecordMoves, log))
	}
	return out
}

func eventsPath(c *config.Config) string {
	if c.Events.Path != "" {
		return c.Events.Path
	}
	return events.DefaultPath()
}
