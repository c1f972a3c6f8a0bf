package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/graph"
)

// DefaultPath returns the event log location under the flowviz config dir.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flowviz", "events.jsonl")
}

// Log appends events to a JSONL file. Moves are only written when
// RecordMoves is set, since a drag produces one per pointer event.
type Log struct {
	Path        string
	RecordMoves bool

	mu  sync.Mutex
	log *zap.Logger
}

// NewLog creates a log writing to path, or DefaultPath when empty.
func NewLog(path string, recordMoves bool, log *zap.Logger) *Log {
	if path == "" {
		path = DefaultPath()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{Path: path, RecordMoves: recordMoves, log: log}
}

// NodeActivated implements Emitter. Write failures are logged, not returned.
func (l *Log) NodeActivated(id string) {
	l.write(Entry{Timestamp: time.Now(), Kind: Activated, Node: id})
}

// NodeMoved implements Emitter.
func (l *Log) NodeMoved(id string, pos graph.Position) {
	if !l.RecordMoves {
		return
	}
	l.write(movedEntry(time.Now(), id, pos))
}

func (l *Log) write(e Entry) {
	if err := l.Append(e); err != nil {
		l.log.Warn("event log write failed", zap.String("path", l.Path), zap.Error(err))
	}
}

// Append writes one entry.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the newest count entries, newest first. count <= 0 returns
// all. A missing file is an empty log.
func Read(path string, count int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search returns entries whose node id contains query, case-insensitively.
func Search(path, query string, count int) ([]Entry, error) {
	all, err := Read(path, 0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Entry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Node), q) || string(e.Kind) == q {
			out = append(out, e)
			if count > 0 && len(out) >= count {
				break
			}
		}
	}
	return out, nil
}

// Clear removes the log file.
func Clear(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
