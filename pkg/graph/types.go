package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	"github.com/matzehuels/circuitdag/pkg/dag"
)

// =============================================================================
// Graph - Converted Program Serialization
// =============================================================================

// Graph is the canonical serialization format for a converted program.
type Graph struct {
	Name         string         `json:"name,omitempty"`
	GlobalPhase  float64        `json:"global_phase,omitempty"`
	Duration     *float64       `json:"duration,omitempty"`
	Unit         string         `json:"unit,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Calibrations map[string]any `json:"calibrations,omitempty"`

	Qubits []string   `json:"qubits"`
	Clbits []string   `json:"clbits"`
	Qregs  []Register `json:"qregs,omitempty"`
	Cregs  []Register `json:"cregs,omitempty"`

	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// Register is a named wire group.
type Register struct {
	Name string   `json:"name"`
	Bits []string `json:"bits"`
}

// Node is a terminal or an operation.
type Node struct {
	ID        int      `json:"id"`
	Kind      string   `json:"kind"`
	Wire      string   `json:"wire,omitempty"`
	Name      string   `json:"name,omitempty"`
	Qargs     []string `json:"qargs,omitempty"`
	Cargs     []string `json:"cargs,omitempty"`
	Params    []any    `json:"params,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Label     string   `json:"label,omitempty"`
}

// IsOp reports whether the node is an operation.
func (n *Node) IsOp() bool { return n.Kind == dag.NodeKindOp.String() }

// Edge is a directed edge labelled by its wire.
type Edge struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Wire string `json:"wire"`
}

// Stats summarises the graph.
type Stats struct {
	Size  int            `json:"size"`
	Depth int            `json:"depth"`
	Width int            `json:"width"`
	Ops   map[string]int `json:"ops"`
}

// Program is the export of a control-flow body that was not converted.
type Program struct {
	Program      string        `json:"program"`
	Instructions []Instruction `json:"instructions"`
}

// Instruction is one entry of an exported [Program].
type Instruction struct {
	Name  string   `json:"name"`
	Qargs []string `json:"qargs,omitempty"`
	Cargs []string `json:"cargs,omitempty"`
}

// =============================================================================
// DAGCircuit → Graph Conversion
// =============================================================================

// FromDAG converts a graph to its serialization format. Nested graphs in
// operation parameters are converted recursively.
func FromDAG(g *dag.DAGCircuit) (*Graph, error) {
	out := &Graph{
		Name:         g.Name,
		GlobalPhase:  g.GlobalPhase,
		Duration:     g.Duration,
		Unit:         g.Unit,
		Metadata:     g.Metadata,
		Calibrations: g.Calibrations,
		Qubits:       bitStrings(g.Qubits()),
		Clbits:       bitStrings(g.Clbits()),
		Qregs:        registers(g.QuantumRegisters()),
		Cregs:        registers(g.ClassicalRegisters()),
		Stats: Stats{
			Size:  g.Size(),
			Depth: g.Depth(),
			Width: g.Width(),
			Ops:   g.CountOps(),
		},
	}

	nodes := g.Nodes()
	out.Nodes = make([]Node, len(nodes))
	for i, n := range nodes {
		nd, err := nodeFromDAG(n)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		out.Nodes[i] = nd
	}

	edges := g.Edges()
	out.Edges = make([]Edge, len(edges))
	for i, e := range edges {
		out.Edges[i] = Edge{From: int(e.From), To: int(e.To), Wire: e.Wire.String()}
	}
	return out, nil
}

func nodeFromDAG(n *dag.Node) (Node, error) {
	nd := Node{ID: int(n.ID), Kind: n.Kind.String()}
	if !n.IsOp() {
		nd.Wire = n.Wire.String()
		return nd, nil
	}

	nd.Name = n.Op.Name()
	nd.Qargs = bitStrings(n.Qargs)
	nd.Cargs = bitStrings(n.Cargs)
	switch op := n.Op.(type) {
	case *circuit.Gate:
		nd.Label = op.Label
	case *circuit.ControlFlowOp:
		if op.Name() != circuit.ForLoopName {
			nd.Condition = op.Condition.String()
		}
	}

	params := n.Op.Params()
	if len(params) == 0 {
		return nd, nil
	}
	nd.Params = make([]any, len(params))
	for i, p := range params {
		v, err := exportParam(p)
		if err != nil {
			return Node{}, fmt.Errorf("param %d: %w", i, err)
		}
		nd.Params[i] = v
	}
	return nd, nil
}

func exportParam(p any) (any, error) {
	switch v := p.(type) {
	case *dag.DAGCircuit:
		return FromDAG(v)
	case *circuit.Circuit:
		return programFrom(v), nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			x, err := exportParam(e)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	}
	return p, nil
}

func programFrom(c *circuit.Circuit) *Program {
	p := &Program{Program: c.Name, Instructions: make([]Instruction, c.Len())}
	for i, in := range c.Data() {
		p.Instructions[i] = Instruction{
			Name:  in.Operation.Name(),
			Qargs: bitStrings(in.Qubits),
			Cargs: bitStrings(in.Clbits),
		}
	}
	return p
}

func bitStrings(bits []circuit.Bit) []string {
	out := make([]string, len(bits))
	for i, b := range bits {
		out[i] = b.String()
	}
	return out
}

func registers(regs []circuit.Register) []Register {
	if len(regs) == 0 {
		return nil
	}
	out := make([]Register, len(regs))
	for i, r := range regs {
		out[i] = Register{Name: r.Name, Bits: bitStrings(r.Bits)}
	}
	return out
}

// OpNodes returns the operation nodes in ID order.
func (g *Graph) OpNodes() []Node {
	return slices.DeleteFunc(slices.Clone(g.Nodes), func(n Node) bool { return !n.IsOp() })
}
