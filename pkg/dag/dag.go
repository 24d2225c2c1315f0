package dag

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/circuitdag/pkg/circuit"
)

var (
	// ErrDuplicateWire is returned by [DAGCircuit.AddQubits],
	// [DAGCircuit.AddClbits] and the register helpers when a wire already
	// has terminals in the graph.
	ErrDuplicateWire = errors.New("duplicate wire")

	// ErrUnknownWire is returned by [DAGCircuit.ApplyOperationBack] when an
	// operation names a wire that was never added to the graph.
	ErrUnknownWire = errors.New("unknown wire")

	// ErrEmptyWireList is returned by [DAGCircuit.ApplyOperationBack] when an
	// operation touches no wire at all.
	ErrEmptyWireList = errors.New("operation touches no wire")

	// ErrDuplicateWireInOperation is returned by [DAGCircuit.ApplyOperationBack]
	// when an operation names the same wire more than once.
	ErrDuplicateWireInOperation = errors.New("operation names a wire more than once")

	// ErrNilOperation is returned by [DAGCircuit.ApplyOperationBack] for a nil
	// payload.
	ErrNilOperation = errors.New("nil operation")

	// ErrGraphHasCycle is returned by [DAGCircuit.Validate] when a cycle is
	// detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrBrokenWire is returned by [DAGCircuit.Validate] when the edges of a
	// wire do not form a single path from its input to its output terminal.
	ErrBrokenWire = errors.New("wire path is broken")
)

// NodeID identifies a node within one DAGCircuit. IDs are dense indices
// assigned in creation order and are never reused.
type NodeID int

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	// NodeKindIn is the input terminal of a wire.
	NodeKindIn NodeKind = iota
	// NodeKindOut is the output terminal of a wire.
	NodeKindOut
	// NodeKindOp is an operation node.
	NodeKindOp
)

// String returns "in", "out" or "op".
func (k NodeKind) String() string {
	switch k {
	case NodeKindIn:
		return "in"
	case NodeKindOut:
		return "out"
	case NodeKindOp:
		return "op"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a vertex of the graph.
//
// Terminal nodes (NodeKindIn, NodeKindOut) set Wire. Operation nodes set Op,
// Qargs and Cargs; Wires returns Qargs followed by Cargs.
type Node struct {
	ID   NodeID
	Kind NodeKind

	Wire circuit.Bit

	Op    circuit.Operation
	Qargs []circuit.Bit
	Cargs []circuit.Bit
}

// IsOp reports whether n is an operation node.
func (n *Node) IsOp() bool { return n.Kind == NodeKindOp }

// Name returns the operation name for op nodes and "in"/"out" for terminals.
func (n *Node) Name() string {
	if n.IsOp() {
		return n.Op.Name()
	}
	return n.Kind.String()
}

// Wires returns the wires the node lives on: the touched wires of an op node
// (qubits then clbits) or the single wire of a terminal.
func (n *Node) Wires() []circuit.Bit {
	if !n.IsOp() {
		return []circuit.Bit{n.Wire}
	}
	wires := make([]circuit.Bit, 0, len(n.Qargs)+len(n.Cargs))
	wires = append(wires, n.Qargs...)
	return append(wires, n.Cargs...)
}

// String formats the node as "op#3 cx(q[0], q[1])" or "in#0 q[0]".
func (n *Node) String() string {
	if n.IsOp() {
		return fmt.Sprintf("op#%d %s(%s)", n.ID, n.Op.Name(), circuit.FormatBits(n.Wires()))
	}
	return fmt.Sprintf("%s#%d %s", n.Kind, n.ID, n.Wire)
}

// Edge is a directed edge labelled by the wire it represents.
type Edge struct {
	From NodeID
	To   NodeID
	Wire circuit.Bit
}

// DAGCircuit is the dependency graph of a program: per wire, edges labelled
// with that wire form a single path from the wire's input terminal through
// every operation touching it, in append order, to its output terminal.
//
// Nodes and edges live in arenas indexed by NodeID and edge index; adjacency
// is kept as edge-index lists. The wire to terminal maps are private
// bookkeeping and never exposed.
//
// The zero value is not usable - use New. A DAGCircuit is not safe for
// concurrent mutation. Once built, concurrent reads are safe.
type DAGCircuit struct {
	// Scalar program metadata. None of it influences graph structure.
	Name         string
	GlobalPhase  float64
	Calibrations map[string]any
	Metadata     map[string]any
	Duration     *float64
	Unit         string

	nodes []*Node
	edges []Edge
	in    [][]int // NodeID -> incoming edge indices
	out   [][]int // NodeID -> outgoing edge indices

	inputMap  map[circuit.Bit]NodeID
	outputMap map[circuit.Bit]NodeID

	qubits []circuit.Bit
	clbits []circuit.Bit
	qregs  []circuit.Register
	cregs  []circuit.Register
}

// New creates an empty graph with no wires.
func New() *DAGCircuit {
	return &DAGCircuit{
		Calibrations: map[string]any{},
		Metadata:     map[string]any{},
		Unit:         "dt",
		inputMap:     make(map[circuit.Bit]NodeID),
		outputMap:    make(map[circuit.Bit]NodeID),
	}
}

// =============================================================================
// Wires
// =============================================================================

// AddQubits adds quantum wires. For each wire an input terminal, an output
// terminal and a single edge between them are created. Fails before any
// mutation with ErrDuplicateWire if a wire is already present or repeated,
// and with ErrUnknownWire for a bit that is not a qubit.
func (d *DAGCircuit) AddQubits(bits ...circuit.Bit) error {
	return d.addWires(circuit.KindQubit, bits)
}

// AddClbits adds classical wires. See AddQubits.
func (d *DAGCircuit) AddClbits(bits ...circuit.Bit) error {
	return d.addWires(circuit.KindClbit, bits)
}

func (d *DAGCircuit) addWires(kind circuit.WireKind, bits []circuit.Bit) error {
	seen := make(map[circuit.Bit]struct{}, len(bits))
	for _, b := range bits {
		if b.Kind != kind {
			return fmt.Errorf("%w: %s is not a %s", ErrUnknownWire, b, kind)
		}
		if _, ok := d.inputMap[b]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateWire, b)
		}
		if _, ok := seen[b]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateWire, b)
		}
		seen[b] = struct{}{}
	}
	for _, b := range bits {
		d.addWire(b)
	}
	return nil
}

func (d *DAGCircuit) addWire(b circuit.Bit) {
	in := d.newNode(Node{Kind: NodeKindIn, Wire: b})
	out := d.newNode(Node{Kind: NodeKindOut, Wire: b})
	d.inputMap[b] = in.ID
	d.outputMap[b] = out.ID
	d.addEdge(in.ID, out.ID, b)
	if b.Kind == circuit.KindQubit {
		d.qubits = append(d.qubits, b)
	} else {
		d.clbits = append(d.clbits, b)
	}
}

// AddQreg records a quantum register and adds any of its bits that are not
// yet wires of the graph. Fails with ErrDuplicateWire if a quantum register
// with the same name was already added.
func (d *DAGCircuit) AddQreg(reg circuit.Register) error {
	return d.addRegister(reg)
}

// AddCreg records a classical register. See AddQreg.
func (d *DAGCircuit) AddCreg(reg circuit.Register) error {
	return d.addRegister(reg)
}

func (d *DAGCircuit) addRegister(reg circuit.Register) error {
	regs := &d.qregs
	if reg.Kind == circuit.KindClbit {
		regs = &d.cregs
	}
	for _, r := range *regs {
		if r.Name == reg.Name {
			return fmt.Errorf("%w: register %q", ErrDuplicateWire, reg.Name)
		}
	}
	var missing []circuit.Bit
	for _, b := range reg.Bits {
		if _, ok := d.inputMap[b]; !ok {
			missing = append(missing, b)
		}
	}
	if err := d.addWires(reg.Kind, missing); err != nil {
		return err
	}
	reg.Bits = slices.Clone(reg.Bits)
	*regs = append(*regs, reg)
	return nil
}

// HasWire reports whether the wire has terminals in the graph.
func (d *DAGCircuit) HasWire(b circuit.Bit) bool {
	_, ok := d.inputMap[b]
	return ok
}

// InputNode returns the input terminal of a wire.
func (d *DAGCircuit) InputNode(b circuit.Bit) (*Node, bool) {
	id, ok := d.inputMap[b]
	if !ok {
		return nil, false
	}
	return d.nodes[id], true
}

// OutputNode returns the output terminal of a wire, the node presently at
// the end of the wire's path. Its identity never changes; only what feeds
// into it does.
func (d *DAGCircuit) OutputNode(b circuit.Bit) (*Node, bool) {
	id, ok := d.outputMap[b]
	if !ok {
		return nil, false
	}
	return d.nodes[id], true
}

// =============================================================================
// Insertion
// =============================================================================

// ApplyOperationBack appends an operation at the end of every wire it
// touches and returns the new node.
//
// The new node is spliced immediately before each touched wire's output
// terminal: the edge that fed the terminal on that wire is redirected into
// the new node and a fresh edge from the new node to the terminal is added.
// No edge or node is ever removed.
//
// The wire list is validated before any mutation. Fails with
// ErrNilOperation, ErrEmptyWireList, ErrUnknownWire or
// ErrDuplicateWireInOperation; on failure the graph is unchanged.
func (d *DAGCircuit) ApplyOperationBack(op circuit.Operation, qargs, cargs []circuit.Bit) (*Node, error) {
	if op == nil {
		return nil, ErrNilOperation
	}
	node := Node{
		Kind:  NodeKindOp,
		Op:    op,
		Qargs: slices.Clone(qargs),
		Cargs: slices.Clone(cargs),
	}
	wires := node.Wires()
	if err := d.checkWires(op.Name(), wires); err != nil {
		return nil, err
	}

	n := d.newNode(node)
	for _, w := range wires {
		term := d.outputMap[w]
		ei := d.inEdgeOn(term, w)
		d.redirectEdge(ei, n.ID)
		d.addEdge(n.ID, term, w)
	}
	return n, nil
}

func (d *DAGCircuit) checkWires(name string, wires []circuit.Bit) error {
	if len(wires) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyWireList, name)
	}
	seen := make(map[circuit.Bit]struct{}, len(wires))
	for _, w := range wires {
		if _, ok := d.outputMap[w]; !ok {
			return fmt.Errorf("%w: %s on %s", ErrUnknownWire, name, w)
		}
		if _, dup := seen[w]; dup {
			return fmt.Errorf("%w: %s on %s", ErrDuplicateWireInOperation, name, w)
		}
		seen[w] = struct{}{}
	}
	return nil
}

func (d *DAGCircuit) newNode(n Node) *Node {
	n.ID = NodeID(len(d.nodes))
	node := &n
	d.nodes = append(d.nodes, node)
	d.in = append(d.in, nil)
	d.out = append(d.out, nil)
	return node
}

func (d *DAGCircuit) addEdge(from, to NodeID, w circuit.Bit) {
	idx := len(d.edges)
	d.edges = append(d.edges, Edge{From: from, To: to, Wire: w})
	d.out[from] = append(d.out[from], idx)
	d.in[to] = append(d.in[to], idx)
}

// inEdgeOn returns the index of the edge labelled w that enters id.
// The output terminal of w always has exactly one such edge.
func (d *DAGCircuit) inEdgeOn(id NodeID, w circuit.Bit) int {
	for _, ei := range d.in[id] {
		if d.edges[ei].Wire == w {
			return ei
		}
	}
	panic(fmt.Sprintf("dag: node %d has no incoming edge on %s", id, w))
}

func (d *DAGCircuit) redirectEdge(ei int, to NodeID) {
	old := d.edges[ei].To
	d.in[old] = slices.DeleteFunc(d.in[old], func(i int) bool { return i == ei })
	d.edges[ei].To = to
	d.in[to] = append(d.in[to], ei)
}
