package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a graph file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// document mirrors the wire shape. Nodes stay as maps so unknown keys can be
// carried through as payload.
type document struct {
	Nodes       []map[string]any `json:"nodes" yaml:"nodes"`
	Connections []Connection     `json:"connections" yaml:"connections"`
}

var reservedKeys = map[string]bool{
	"id": true, "label": true, "category": true, "x": true, "y": true, "z": true,
}

// FormatFromPath picks a format by file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads and ingests a graph file.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Decode(bytes.NewReader(data), FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Decode parses a graph document and ingests it.
func Decode(r io.Reader, format Format) (*Graph, error) {
	data, err := DecodeData(r, format)
	if err != nil {
		return nil, err
	}
	return New(data)
}

// DecodeData parses a graph document without ingesting it.
func DecodeData(r io.Reader, format Format) (Data, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return Data{}, fmt.Errorf("graph parse: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Data{}, fmt.Errorf("graph parse: %w", err)
		}
	default:
		return Data{}, fmt.Errorf("unknown graph format: %s", format)
	}

	data := Data{
		Nodes:       make([]Node, 0, len(doc.Nodes)),
		Connections: doc.Connections,
	}
	for i, m := range doc.Nodes {
		n, err := nodeFromMap(m)
		if err != nil {
			return Data{}, fmt.Errorf("node %d: %w", i, err)
		}
		data.Nodes = append(data.Nodes, n)
	}
	return data, nil
}

func nodeFromMap(m map[string]any) (Node, error) {
	var n Node
	var err error

	n.ID = stringField(m["id"])
	n.Label = stringField(m["label"])
	n.Category = stringField(m["category"])

	if n.Position.X, err = floatField(m, "x"); err != nil {
		return n, err
	}
	if n.Position.Y, err = floatField(m, "y"); err != nil {
		return n, err
	}
	if _, ok := m["z"]; ok {
		if n.Position.Z, err = floatField(m, "z"); err != nil {
			return n, err
		}
		n.Position.HasZ = true
	}

	for k, v := range m {
		if reservedKeys[k] {
			continue
		}
		if n.Payload == nil {
			n.Payload = make(map[string]any)
		}
		n.Payload[k] = v
	}
	return n, nil
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func floatField(m map[string]any, key string) (float64, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}
