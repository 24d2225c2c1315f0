package dag

import (
	"maps"
	"slices"

	"github.com/matzehuels/circuitdag/pkg/circuit"
)

// Node returns the node with the given ID.
func (d *DAGCircuit) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil, false
	}
	return d.nodes[id], true
}

// Nodes returns all nodes in creation order. The returned slice is a copy
// but the nodes are the graph's own; treat them as read-only.
func (d *DAGCircuit) Nodes() []*Node { return slices.Clone(d.nodes) }

// OpNodes returns the operation nodes in insertion order.
func (d *DAGCircuit) OpNodes() []*Node {
	var ops []*Node
	for _, n := range d.nodes {
		if n.IsOp() {
			ops = append(ops, n)
		}
	}
	return ops
}

// Edges returns a copy of all edges.
func (d *DAGCircuit) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes, terminals included.
func (d *DAGCircuit) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAGCircuit) EdgeCount() int { return len(d.edges) }

// InEdges returns the edges entering the node.
func (d *DAGCircuit) InEdges(id NodeID) []Edge { return d.collect(d.in, id) }

// OutEdges returns the edges leaving the node.
func (d *DAGCircuit) OutEdges(id NodeID) []Edge { return d.collect(d.out, id) }

func (d *DAGCircuit) collect(adj [][]int, id NodeID) []Edge {
	if id < 0 || int(id) >= len(adj) {
		return nil
	}
	edges := make([]Edge, len(adj[id]))
	for i, ei := range adj[id] {
		edges[i] = d.edges[ei]
	}
	return edges
}

// Successors returns the distinct nodes reached by an outgoing edge, in
// ascending ID order.
func (d *DAGCircuit) Successors(id NodeID) []*Node {
	return d.neighbours(d.out, id, func(e Edge) NodeID { return e.To })
}

// Predecessors returns the distinct nodes with an edge into id, in
// ascending ID order.
func (d *DAGCircuit) Predecessors(id NodeID) []*Node {
	return d.neighbours(d.in, id, func(e Edge) NodeID { return e.From })
}

func (d *DAGCircuit) neighbours(adj [][]int, id NodeID, end func(Edge) NodeID) []*Node {
	if id < 0 || int(id) >= len(adj) {
		return nil
	}
	ids := make([]NodeID, 0, len(adj[id]))
	for _, ei := range adj[id] {
		ids = append(ids, end(d.edges[ei]))
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	nodes := make([]*Node, len(ids))
	for i, n := range ids {
		nodes[i] = d.nodes[n]
	}
	return nodes
}

// NodesOnWire walks the wire from its input terminal to its output terminal
// and returns the nodes in path order. With onlyOps the terminals are
// omitted. Returns nil for an unknown wire.
func (d *DAGCircuit) NodesOnWire(w circuit.Bit, onlyOps bool) []*Node {
	cur, ok := d.inputMap[w]
	if !ok {
		return nil
	}
	var path []*Node
	for {
		n := d.nodes[cur]
		if !onlyOps || n.IsOp() {
			path = append(path, n)
		}
		next, ok := d.nextOn(cur, w)
		if !ok {
			return path
		}
		cur = next
	}
}

func (d *DAGCircuit) nextOn(id NodeID, w circuit.Bit) (NodeID, bool) {
	for _, ei := range d.out[id] {
		if d.edges[ei].Wire == w {
			return d.edges[ei].To, true
		}
	}
	return 0, false
}

// TopologicalOpNodes returns the operation nodes in a topological order.
// Among nodes that are ready at the same time the one with the lowest ID
// comes first, so for a converted program the order is deterministic and
// follows program order wherever dependencies allow.
func (d *DAGCircuit) TopologicalOpNodes() []*Node {
	order := d.topologicalOrder()
	ops := make([]*Node, 0, len(order))
	for _, id := range order {
		if n := d.nodes[id]; n.IsOp() {
			ops = append(ops, n)
		}
	}
	return ops
}

// topologicalOrder is Kahn's algorithm with a sorted ready set. Nodes on a
// cycle are left out of the result.
func (d *DAGCircuit) topologicalOrder() []NodeID {
	inDegree := make([]int, len(d.nodes))
	var ready []NodeID
	for i := range d.nodes {
		inDegree[i] = len(d.in[i])
		if inDegree[i] == 0 {
			ready = append(ready, NodeID(i))
		}
	}

	order := make([]NodeID, 0, len(d.nodes))
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, ei := range d.out[cur] {
			child := d.edges[ei].To
			inDegree[child]--
			if inDegree[child] == 0 {
				pos, _ := slices.BinarySearch(ready, child)
				ready = slices.Insert(ready, pos, child)
			}
		}
	}
	return order
}

// Depth returns the number of operations on the longest path through the
// graph. A graph without operations has depth 0.
func (d *DAGCircuit) Depth() int {
	depth := make([]int, len(d.nodes))
	best := 0
	for _, id := range d.topologicalOrder() {
		n := d.nodes[id]
		if n.IsOp() {
			depth[id]++
		}
		best = max(best, depth[id])
		for _, ei := range d.out[id] {
			child := d.edges[ei].To
			depth[child] = max(depth[child], depth[id])
		}
	}
	return best
}

// Size returns the number of operation nodes.
func (d *DAGCircuit) Size() int { return len(d.nodes) - 2*len(d.inputMap) }

// Width returns the number of wires, quantum and classical.
func (d *DAGCircuit) Width() int { return len(d.qubits) + len(d.clbits) }

// NumQubits returns the number of quantum wires.
func (d *DAGCircuit) NumQubits() int { return len(d.qubits) }

// NumClbits returns the number of classical wires.
func (d *DAGCircuit) NumClbits() int { return len(d.clbits) }

// CountOps returns how many operation nodes carry each operation name.
func (d *DAGCircuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, n := range d.nodes {
		if n.IsOp() {
			counts[n.Op.Name()]++
		}
	}
	return counts
}

// Wires returns every wire, quantum wires first, each in the order added.
func (d *DAGCircuit) Wires() []circuit.Bit {
	return append(slices.Clone(d.qubits), d.clbits...)
}

// Qubits returns the quantum wires in the order added.
func (d *DAGCircuit) Qubits() []circuit.Bit { return slices.Clone(d.qubits) }

// Clbits returns the classical wires in the order added.
func (d *DAGCircuit) Clbits() []circuit.Bit { return slices.Clone(d.clbits) }

// QuantumRegisters returns the quantum registers in the order added.
func (d *DAGCircuit) QuantumRegisters() []circuit.Register { return slices.Clone(d.qregs) }

// ClassicalRegisters returns the classical registers in the order added.
func (d *DAGCircuit) ClassicalRegisters() []circuit.Register { return slices.Clone(d.cregs) }

// Copy returns a deep copy of the graph. Operation payloads are cloned with
// Operation.Clone, so nested graphs held as parameters are copied too.
func (d *DAGCircuit) Copy() *DAGCircuit {
	out := &DAGCircuit{
		Name:         d.Name,
		GlobalPhase:  d.GlobalPhase,
		Calibrations: maps.Clone(d.Calibrations),
		Metadata:     maps.Clone(d.Metadata),
		Unit:         d.Unit,
		nodes:        make([]*Node, len(d.nodes)),
		edges:        slices.Clone(d.edges),
		in:           make([][]int, len(d.in)),
		out:          make([][]int, len(d.out)),
		inputMap:     maps.Clone(d.inputMap),
		outputMap:    maps.Clone(d.outputMap),
		qubits:       slices.Clone(d.qubits),
		clbits:       slices.Clone(d.clbits),
		qregs:        slices.Clone(d.qregs),
		cregs:        slices.Clone(d.cregs),
	}
	if d.Duration != nil {
		dur := *d.Duration
		out.Duration = &dur
	}
	for i, n := range d.nodes {
		cp := *n
		if n.IsOp() {
			cp.Op = n.Op.Clone()
			cp.Qargs = slices.Clone(n.Qargs)
			cp.Cargs = slices.Clone(n.Cargs)
		}
		out.nodes[i] = &cp
	}
	for i := range d.in {
		out.in[i] = slices.Clone(d.in[i])
		out.out[i] = slices.Clone(d.out[i])
	}
	return out
}

// CloneAny implements circuit.Cloner so that converted bodies held as
// operation parameters are deep-copied by Operation.Clone.
func (d *DAGCircuit) CloneAny() any { return d.Copy() }
