package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/circuitdag/pkg/dag"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalDAG converts a graph to indented JSON bytes. The output is
// deterministic for a deterministic graph.
func MarshalDAG(g *dag.DAGCircuit) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDAG(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDAG writes a graph as JSON to w.
func WriteDAG(g *dag.DAGCircuit, w io.Writer) error {
	out, err := FromDAG(g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDAGFile writes a graph to a JSON file at path.
func WriteDAGFile(g *dag.DAGCircuit, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDAG(g, f)
}

// UnmarshalGraph decodes exported JSON. Nested graphs in parameters are
// left as generic JSON values.
func UnmarshalGraph(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &g, nil
}

// WriteSchedule writes one operation per line in the graph's deterministic
// topological order, each as "name wire, wire". It is the plain-text
// output of the CLI.
func WriteSchedule(g *dag.DAGCircuit, w io.Writer) error {
	for i, n := range g.TopologicalOpNodes() {
		wires := make([]string, 0, len(n.Qargs)+len(n.Cargs))
		for _, b := range n.Wires() {
			wires = append(wires, b.String())
		}
		if _, err := fmt.Fprintf(w, "%3d  %-10s %s\n", i, n.Name(), strings.Join(wires, ", ")); err != nil {
			return err
		}
	}
	return nil
}
