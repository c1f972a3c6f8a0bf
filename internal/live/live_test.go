package live

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/flowviz/internal/engine"
	"github.com/msalah0e/flowviz/internal/events"
)

const twoNodes = `{
  "nodes": [
    {"id": "api", "category": "service", "x": 100, "y": 100},
    {"id": "db", "category": "database", "x": 400, "y": 100}
  ],
  "connections": [{"source": "api", "target": "db"}]
}`

const threeNodes = `{
  "nodes": [
    {"id": "api", "category": "service", "x": 100, "y": 100},
    {"id": "db", "category": "database", "x": 400, "y": 100},
    {"id": "cache", "category": "cache", "x": 250, "y": 300}
  ],
  "connections": []
}`

func writeGraph(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

type harness struct {
	server *Server
	http   *httptest.Server
	rec    *events.Recorder
	path   string
}

func start(t *testing.T) harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	writeGraph(t, path, twoNodes)

	rec := &events.Recorder{}
	s, err := New(Options{
		GraphPath: path,
		FPS:       120,
		Assets:    fstest.MapFS{"index.html": {Data: []byte("<html>flowviz</html>")}},
		Engine:    engine.Options{Emitter: rec},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.ticker.Run(ctx)
		close(done)
	}()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return harness{server: s, http: ts, rec: rec, path: path}
}

func (h harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServesIndex(t *testing.T) {
	h := start(t)
	resp, err := http.Get(h.http.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "flowviz")
}

func TestPushesSVGFrames(t *testing.T) {
	h := start(t)
	conn := h.dial(t)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(msg), "<svg"))
	assert.Contains(t, string(msg), `data-node="api"`)
	assert.Equal(t, 1, h.server.Clients())
}

func TestBrowserEventsReachTheScene(t *testing.T) {
	h := start(t)
	conn := h.dial(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pointerdown", "x": 400, "y": 100}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pointerup", "x": 400, "y": 100}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "doubleclick", "x": 1, "y": 1}))

	require.Eventually(t, func() bool {
		return h.rec.Count(events.Activated) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "db", h.rec.Entries()[0].Node)
}

func TestReloadRemounts(t *testing.T) {
	h := start(t)
	require.Equal(t, 1, h.server.Mounts())

	writeGraph(t, h.path, threeNodes)
	require.NoError(t, h.server.Reload(context.Background()))
	require.Eventually(t, func() bool { return h.server.Mounts() == 2 }, 3*time.Second, 10*time.Millisecond)

	conn := h.dial(t)
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `data-node="cache"`)
}

func TestReloadKeepsViewOnBadFile(t *testing.T) {
	h := start(t)
	writeGraph(t, h.path, `{"nodes": [{"id": "a"}, {"id": "a"}]}`)

	assert.Error(t, h.server.Reload(context.Background()))
	assert.Equal(t, 1, h.server.Mounts())
}

func TestWatchFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	writeGraph(t, path, "nodes: []\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var fired atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func() { fired.Add(1) })
	}()

	// Unrelated files in the same directory are ignored.
	time.Sleep(100 * time.Millisecond)
	writeGraph(t, filepath.Join(dir, "other.yaml"), "x: 1\n")
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())

	writeGraph(t, path, "nodes: [{id: a}]\n")
	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCloseAllDropsBrowsers(t *testing.T) {
	h := start(t)
	conn := h.dial(t)
	require.Eventually(t, func() bool { return h.server.Clients() == 1 }, 3*time.Second, 10*time.Millisecond)

	h.server.hub.closeAll()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	require.Eventually(t, func() bool { return h.server.Clients() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestRunClosesBrowsersOnShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	path := filepath.Join(t.TempDir(), "graph.json")
	writeGraph(t, path, twoNodes)
	s, err := New(Options{Addr: addr, GraphPath: path, FPS: 120})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	cancel()
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Eventually(t, func() bool { return s.Clients() == 0 }, 3*time.Second, 10*time.Millisecond)
}
