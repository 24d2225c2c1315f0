package dag

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/matzehuels/circuitdag/pkg/circuit"
)

// Validate checks the structural invariants of the graph and returns nil if
// they hold:
//
//  1. The graph is acyclic.
//  2. Every wire has exactly one input and one output terminal; the input
//     terminal has no incoming edge and the output terminal no outgoing one.
//  3. The edges labelled with a wire form a single path from its input to its
//     output terminal, and every node on it lives on that wire.
//  4. Every operation node touches at least one wire, each declared.
//
// Returns ErrGraphHasCycle, ErrBrokenWire, ErrUnknownWire or
// ErrEmptyWireList wrapped with the offending wire or node.
func (d *DAGCircuit) Validate() error {
	if err := d.detectCycles(); err != nil {
		return err
	}
	for _, w := range d.Wires() {
		if err := d.validateWire(w); err != nil {
			return err
		}
	}
	for _, n := range d.nodes {
		if !n.IsOp() {
			continue
		}
		wires := n.Wires()
		if len(wires) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyWireList, n)
		}
		for _, w := range wires {
			if !d.HasWire(w) {
				return fmt.Errorf("%w: %s on %s", ErrUnknownWire, n, w)
			}
		}
	}
	return nil
}

func (d *DAGCircuit) validateWire(w circuit.Bit) error {
	in, out := d.inputMap[w], d.outputMap[w]
	if d.nodes[in].Kind != NodeKindIn || d.nodes[out].Kind != NodeKindOut {
		return fmt.Errorf("%w: %s has misplaced terminals", ErrBrokenWire, w)
	}
	if len(d.in[in]) != 0 || len(d.out[out]) != 0 {
		return fmt.Errorf("%w: %s terminal has extra edges", ErrBrokenWire, w)
	}

	// Count the edges labelled w; a simple path visits each once.
	labelled := 0
	for _, e := range d.edges {
		if e.Wire == w {
			labelled++
		}
	}
	steps := 0
	cur := in
	for cur != out {
		next, ok := d.nextOn(cur, w)
		if !ok {
			return fmt.Errorf("%w: %s stops at node %d", ErrBrokenWire, w, cur)
		}
		steps++
		if steps > labelled {
			return fmt.Errorf("%w: %s loops", ErrBrokenWire, w)
		}
		if n := d.nodes[next]; n.IsOp() && !touches(n, w) {
			return fmt.Errorf("%w: %s passes through %s", ErrBrokenWire, w, n)
		}
		cur = next
	}
	if steps != labelled {
		return fmt.Errorf("%w: %s has %d stray edges", ErrBrokenWire, w, labelled-steps)
	}
	return nil
}

func touches(n *Node, w circuit.Bit) bool {
	for _, x := range n.Wires() {
		if x == w {
			return true
		}
	}
	return false
}

func (d *DAGCircuit) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id NodeID)
	dfs = func(id NodeID) {
		color[id] = gray
		for _, ei := range d.out[id] {
			child := d.edges[ei].To
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for id := range d.nodes {
		if color[id] == white {
			dfs(NodeID(id))
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// Equal reports whether a and b are the same graph up to node identity: the
// same wires and registers in the same order, the same metadata, and for
// every wire the same sequence of operations, where each operation of a is
// matched to exactly one operation of b with the same name, arity, wires,
// parameter values, gate label and condition. Nested graphs in parameters
// are compared with Equal.
func Equal(a, b *DAGCircuit) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !sameMetadata(a, b) {
		return false
	}
	if !reflect.DeepEqual(a.qubits, b.qubits) || !reflect.DeepEqual(a.clbits, b.clbits) ||
		!sameRegisters(a.qregs, b.qregs) || !sameRegisters(a.cregs, b.cregs) {
		return false
	}
	if a.Size() != b.Size() || len(a.edges) != len(b.edges) {
		return false
	}

	match := make(map[NodeID]NodeID)
	for _, w := range a.Wires() {
		pa, pb := a.NodesOnWire(w, true), b.NodesOnWire(w, true)
		if len(pa) != len(pb) {
			return false
		}
		for i := range pa {
			if m, seen := match[pa[i].ID]; seen {
				if m != pb[i].ID {
					return false
				}
				continue
			}
			if !sameOp(pa[i], pb[i]) {
				return false
			}
			match[pa[i].ID] = pb[i].ID
		}
	}

	// The matching must be a bijection.
	used := make(map[NodeID]struct{}, len(match))
	for _, v := range match {
		if _, dup := used[v]; dup {
			return false
		}
		used[v] = struct{}{}
	}
	return len(match) == a.Size()
}

func sameMetadata(a, b *DAGCircuit) bool {
	if a.Name != b.Name || a.GlobalPhase != b.GlobalPhase || a.Unit != b.Unit {
		return false
	}
	if (a.Duration == nil) != (b.Duration == nil) {
		return false
	}
	if a.Duration != nil && *a.Duration != *b.Duration {
		return false
	}
	return maps.EqualFunc(a.Calibrations, b.Calibrations, reflect.DeepEqual) &&
		maps.EqualFunc(a.Metadata, b.Metadata, reflect.DeepEqual)
}

func sameRegisters(a, b []circuit.Register) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Kind != b[i].Kind || !reflect.DeepEqual(a[i].Bits, b[i].Bits) {
			return false
		}
	}
	return true
}

func sameOp(a, b *Node) bool {
	if a.Op.Name() != b.Op.Name() ||
		a.Op.NumQubits() != b.Op.NumQubits() || a.Op.NumClbits() != b.Op.NumClbits() {
		return false
	}
	if !reflect.DeepEqual(a.Qargs, b.Qargs) || !reflect.DeepEqual(a.Cargs, b.Cargs) {
		return false
	}
	pa, pb := a.Op.Params(), b.Op.Params()
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if !sameParam(pa[i], pb[i]) {
			return false
		}
	}
	return samePayload(a.Op, b.Op)
}

// samePayload compares the state an operation carries besides its params.
func samePayload(a, b circuit.Operation) bool {
	switch x := a.(type) {
	case *circuit.Gate:
		y, ok := b.(*circuit.Gate)
		return ok && x.Label == y.Label && maps.EqualFunc(x.Options, y.Options, reflect.DeepEqual)
	case *circuit.ControlFlowOp:
		y, ok := b.(*circuit.ControlFlowOp)
		return ok && sameCondition(x.Condition, y.Condition)
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

func sameCondition(a, b circuit.Condition) bool {
	if a.Register != b.Register || a.Value != b.Value || (a.Bit == nil) != (b.Bit == nil) {
		return false
	}
	return a.Bit == nil || *a.Bit == *b.Bit
}

func sameParam(a, b any) bool {
	da, okA := a.(*DAGCircuit)
	db, okB := b.(*DAGCircuit)
	if okA || okB {
		return okA && okB && Equal(da, db)
	}
	return reflect.DeepEqual(a, b)
}
