package circuit

import (
	"fmt"
	"maps"
	"slices"
)

// Names of the structured control-flow operations.
const (
	IfElseName    = "if_else"
	WhileLoopName = "while_loop"
	ForLoopName   = "for_loop"
)

var controlFlowNames = map[string]struct{}{
	IfElseName:    {},
	WhileLoopName: {},
	ForLoopName:   {},
}

// IsControlFlowName reports whether name is reserved for a structured
// control-flow operation, one whose parameters may carry sub-programs.
func IsControlFlowName(name string) bool {
	_, ok := controlFlowNames[name]
	return ok
}

// Operation is the payload carried by an instruction. The graph treats it as
// opaque apart from this contract.
//
// Params returns the live parameter slice; SetParams replaces it. Clone must
// return an exclusively owned deep copy: mutating the clone or anything
// reachable through its parameters must not be visible in the original.
type Operation interface {
	Name() string
	NumQubits() int
	NumClbits() int
	Params() []any
	SetParams(params []any)
	Clone() Operation
}

// Cloner is implemented by parameter values that know how to deep-copy
// themselves. [CloneParam] uses it for values it does not know.
type Cloner interface {
	CloneAny() any
}

// CloneParam deep-copies a single operation parameter. Scalars are copied by
// value; circuits, slices and maps are copied recursively; values
// implementing [Cloner] are asked to copy themselves. Anything else is
// returned as is.
func CloneParam(p any) any {
	switch v := p.(type) {
	case nil:
		return nil
	case *Circuit:
		if v == nil {
			return v
		}
		return v.Clone()
	case Cloner:
		return v.CloneAny()
	case []any:
		return CloneParams(v)
	case []float64:
		return slices.Clone(v)
	case []int:
		return slices.Clone(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = CloneParam(val)
		}
		return out
	default:
		return v
	}
}

// CloneParams deep-copies a parameter list with [CloneParam].
func CloneParams(params []any) []any {
	if params == nil {
		return nil
	}
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = CloneParam(p)
	}
	return out
}

// =============================================================================
// Gate
// =============================================================================

// Gate is a generic named operation with a fixed qubit/clbit arity. It
// covers unitary gates as well as non-unitary instructions such as measure,
// reset and barrier.
type Gate struct {
	name    string
	qubits  int
	clbits  int
	params  []any
	Label   string
	Options map[string]any
}

// NewGate creates a gate with the given name, arity and parameters.
func NewGate(name string, numQubits, numClbits int, params ...any) *Gate {
	return &Gate{name: name, qubits: numQubits, clbits: numClbits, params: params}
}

// Name returns the gate name.
func (g *Gate) Name() string { return g.name }

// NumQubits returns the number of qubits the gate acts on.
func (g *Gate) NumQubits() int { return g.qubits }

// NumClbits returns the number of clbits the gate acts on.
func (g *Gate) NumClbits() int { return g.clbits }

// Params returns the live parameter slice.
func (g *Gate) Params() []any { return g.params }

// SetParams replaces the parameter list.
func (g *Gate) SetParams(params []any) { g.params = params }

// Clone returns a deep copy of the gate.
func (g *Gate) Clone() Operation {
	out := *g
	out.params = CloneParams(g.params)
	if g.Options != nil {
		out.Options = maps.Clone(g.Options)
	}
	return &out
}

// String formats the gate as "name(p0, p1)".
func (g *Gate) String() string {
	if len(g.params) == 0 {
		return g.name
	}
	return fmt.Sprintf("%s%v", g.name, g.params)
}

// Measure returns a single-qubit, single-clbit measurement.
func Measure() *Gate { return NewGate("measure", 1, 1) }

// Reset returns a single-qubit reset.
func Reset() *Gate { return NewGate("reset", 1, 0) }

// Barrier returns a barrier spanning n qubits.
func Barrier(n int) *Gate { return NewGate("barrier", n, 0) }

// =============================================================================
// Control flow
// =============================================================================

// Condition is the classical predicate of a control-flow operation: either a
// whole register or a single bit compared against Value.
type Condition struct {
	Register string
	Bit      *Bit
	Value    int
}

// String formats the condition as "c==1" or "c[0]==1".
func (c Condition) String() string {
	if c.Bit != nil {
		return fmt.Sprintf("%s==%d", c.Bit, c.Value)
	}
	return fmt.Sprintf("%s==%d", c.Register, c.Value)
}

// ControlFlowOp is a structured control-flow operation whose parameters
// include sub-programs (bodies). The parameter layout depends on the name:
//
//	if_else:    [trueBody, falseBody]   (falseBody may be nil)
//	while_loop: [body]
//	for_loop:   [indexset, loopParameter, body]
type ControlFlowOp struct {
	name      string
	qubits    int
	clbits    int
	params    []any
	Condition Condition
}

// NewIfElse creates an if_else operation. falseBody may be nil.
func NewIfElse(cond Condition, trueBody, falseBody *Circuit, numQubits, numClbits int) *ControlFlowOp {
	var fb any
	if falseBody != nil {
		fb = falseBody
	}
	return &ControlFlowOp{
		name:      IfElseName,
		qubits:    numQubits,
		clbits:    numClbits,
		params:    []any{trueBody, fb},
		Condition: cond,
	}
}

// NewWhileLoop creates a while_loop operation over body.
func NewWhileLoop(cond Condition, body *Circuit, numQubits, numClbits int) *ControlFlowOp {
	return &ControlFlowOp{
		name:      WhileLoopName,
		qubits:    numQubits,
		clbits:    numClbits,
		params:    []any{body},
		Condition: cond,
	}
}

// NewForLoop creates a for_loop operation iterating indexset over body.
func NewForLoop(indexset []int, loopParam string, body *Circuit, numQubits, numClbits int) *ControlFlowOp {
	return &ControlFlowOp{
		name:   ForLoopName,
		qubits: numQubits,
		clbits: numClbits,
		params: []any{slices.Clone(indexset), loopParam, body},
	}
}

// Name returns the control-flow name.
func (o *ControlFlowOp) Name() string { return o.name }

// NumQubits returns the number of qubits the operation spans.
func (o *ControlFlowOp) NumQubits() int { return o.qubits }

// NumClbits returns the number of clbits the operation spans.
func (o *ControlFlowOp) NumClbits() int { return o.clbits }

// Params returns the live parameter slice.
func (o *ControlFlowOp) Params() []any { return o.params }

// SetParams replaces the parameter list.
func (o *ControlFlowOp) SetParams(params []any) { o.params = params }

// Clone returns a deep copy, including every body.
func (o *ControlFlowOp) Clone() Operation {
	out := *o
	out.params = CloneParams(o.params)
	if o.Condition.Bit != nil {
		b := *o.Condition.Bit
		out.Condition.Bit = &b
	}
	return &out
}

// Blocks returns the sub-program parameters, skipping nil bodies and
// non-circuit parameters.
func (o *ControlFlowOp) Blocks() []*Circuit {
	var blocks []*Circuit
	for _, p := range o.params {
		if c, ok := p.(*Circuit); ok && c != nil {
			blocks = append(blocks, c)
		}
	}
	return blocks
}
