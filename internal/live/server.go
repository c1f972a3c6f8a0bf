// Package live serves a flow view to the browser. Frames go out as SVG over
// a websocket and pointer events come back the same way. Edits to the graph
// file remount the view.
package live

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/flowviz/internal/engine"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/scene"
	"github.com/msalah0e/flowviz/internal/schedule"
)

// Options configures a Server.
type Options struct {
	Addr      string
	GraphPath string
	Watch     bool
	FPS       int
	Width     int
	Height    int

	// Assets holds index.html and anything it references.
	Assets fs.FS
	// Engine is the mount template. Graph, Surface, Scheduler and Sink are
	// owned by the server.
	Engine engine.Options
	Logger *zap.Logger
}

// message is a browser event: a DOM event name plus its coordinates.
type message struct {
	Type string `json:"type"`
	scene.Event
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns one view. Everything that touches the view runs on the
// ticker goroutine.
type Server struct {
	opts    Options
	log     *zap.Logger
	ticker  *schedule.Ticker
	surface *scene.Surface
	hub     *hub
	mounts  atomic.Int64

	view    *engine.View
	encoder *scene.SVGEncoder
}

// New loads the graph file and mounts the first view. Frames start once
// Run is called.
func New(opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 800, 600
	}
	s := &Server{
		opts:    opts,
		log:     log,
		ticker:  schedule.NewTicker(opts.FPS),
		surface: scene.NewSurface(opts.Width, opts.Height),
		hub:     newHub(),
	}
	g, err := graph.LoadFile(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	if err := s.remount(g); err != nil {
		return nil, err
	}
	return s, nil
}

// remount swaps the view. Loop goroutine only.
func (s *Server) remount(g *graph.Graph) error {
	if s.view != nil {
		s.view.Unmount()
		s.view = nil
	}
	opts := s.opts.Engine
	opts.Graph = g
	opts.Surface = s.surface
	opts.Scheduler = s.ticker
	opts.Sink = s.sink
	if opts.Logger == nil {
		opts.Logger = s.log
	}
	v, err := engine.Mount(opts)
	if err != nil {
		return fmt.Errorf("mount view: %w", err)
	}
	s.view = v
	s.encoder = scene.NewSVGEncoder()
	s.mounts.Add(1)
	return nil
}

// Mounts returns how many views have been mounted.
func (s *Server) Mounts() int { return int(s.mounts.Load()) }

// Clients returns the number of connected browsers.
func (s *Server) Clients() int { return s.hub.len() }

func (s *Server) sink(f *scene.Frame) {
	if s.hub.len() == 0 {
		return
	}
	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, f); err != nil {
		s.log.Warn("frame encode failed", zap.Int("frame", f.Seq), zap.Error(err))
		return
	}
	s.hub.broadcast(buf.Bytes())
}

// Reload re-reads the graph file and remounts. A file that fails to load
// leaves the current view in place.
func (s *Server) Reload(ctx context.Context) error {
	g, err := graph.LoadFile(s.opts.GraphPath)
	if err != nil {
		s.log.Warn("graph reload failed, keeping current view", zap.String("path", s.opts.GraphPath), zap.Error(err))
		return err
	}
	return s.ticker.Post(ctx, func() {
		if err := s.remount(g); err != nil {
			s.log.Error("remount failed", zap.Error(err))
			return
		}
		s.log.Info("graph reloaded", zap.String("path", s.opts.GraphPath), zap.Int("nodes", len(g.Nodes())))
	})
}

// Handler serves the page and the websocket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.Assets != nil {
		mux.Handle("/", http.FileServer(http.FS(s.opts.Assets)))
	}
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn)
	s.hub.add(c)
	go c.writeLoop(s.log)
	s.log.Info("browser connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		s.hub.remove(c)
		conn.Close()
		s.log.Info("browser disconnected", zap.String("remote", r.RemoteAddr))
	}()

	for {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			return
		}
		kind, ok := scene.ParseEventKind(m.Type)
		if !ok {
			s.log.Debug("ignoring browser message", zap.String("type", m.Type))
			continue
		}
		ev := m.Event
		ev.Kind = kind
		if err := s.ticker.Post(r.Context(), func() { s.surface.Dispatch(ev) }); err != nil {
			return
		}
	}
}

// Run serves until ctx ends, then unmounts the view.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.ticker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.log.Info("serving", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		// Shutdown leaves hijacked websocket connections alone.
		err := srv.Shutdown(shutdown)
		s.hub.closeAll()
		return err
	})
	if s.opts.Watch {
		g.Go(func() error {
			return Watch(gctx, s.opts.GraphPath, DefaultDebounce, s.log, func() { _ = s.Reload(gctx) })
		})
	}

	err := g.Wait()
	// The loop goroutine has exited, so the view can be touched here.
	if s.view != nil {
		s.view.Unmount()
		s.view = nil
	}
	return err
}
